package engine

import (
	"fmt"

	"github.com/Carmen-Shannon/glace/engine/profiler"
	"github.com/Carmen-Shannon/glace/engine/settings"
	"github.com/Carmen-Shannon/glace/engine/ui"
	"github.com/Carmen-Shannon/glace/engine/world"
)

var presentModes = []string{"vsync", "uncapped"}

// settingsPanel edits the Settings resource; applySettings picks the edits up next frame.
func settingsPanel(w *world.World) *ui.Panel {
	get := func() settings.Settings {
		s, ok := world.Resource[settings.Settings](w)
		if !ok {
			return settings.Defaults()
		}
		return *s
	}
	set := func(edit func(*settings.Settings)) {
		if s, ok := world.ResourceMut[settings.Settings](w); ok {
			edit(s)
		}
	}

	return ui.NewPanel("Settings",
		ui.Toggle("Rotate light",
			func() bool { return get().Light.Rotate },
			func(v bool) { set(func(s *settings.Settings) { s.Light.Rotate = v }) }),
		ui.Stepper("Light speed",
			func() float32 { return get().Light.Speed },
			func(v float32) { set(func(s *settings.Settings) { s.Light.Speed = v }) },
			0.05, 0, 2),
		ui.Toggle("Wireframe",
			func() bool { return get().Model.Wireframe },
			func(v bool) { set(func(s *settings.Settings) { s.Model.Wireframe = v }) }),
		ui.Toggle("Show depth",
			func() bool { return get().Render.ShowDepth },
			func(v bool) { set(func(s *settings.Settings) { s.Render.ShowDepth = v }) }),
		ui.Cycle("MSAA", []string{"1x", "4x"},
			func() int {
				if get().Render.MSAA > 1 {
					return 1
				}
				return 0
			},
			func(i int) {
				set(func(s *settings.Settings) { s.Render.MSAA = []uint32{1, 4}[i] })
			}),
		ui.Cycle("Present", presentModes,
			func() int {
				if get().Render.PresentMode == "uncapped" || get().Render.PresentMode == "immediate" {
					return 1
				}
				return 0
			},
			func(i int) { set(func(s *settings.Settings) { s.Render.PresentMode = presentModes[i] }) }),
		ui.Stepper("Gloss",
			func() float32 { return get().Model.Gloss },
			func(v float32) { set(func(s *settings.Settings) { s.Model.Gloss = v }) },
			0.05, 0, 1),
		ui.Stepper("Scale",
			func() float32 { return get().Model.Scale },
			func(v float32) { set(func(s *settings.Settings) { s.Model.Scale = v }) },
			0.5, 0.5, 20),
	)
}

// statsPanel shows the latest profiler window.
func statsPanel(w *world.World) *ui.Panel {
	stat := func(format func(profiler.Stats) string) ui.Widget {
		return ui.Label(func() string {
			st, ok := world.Resource[profiler.Stats](w)
			if !ok {
				return "..."
			}
			return format(*st)
		})
	}
	return ui.NewPanel("Stats",
		stat(func(st profiler.Stats) string {
			return fmt.Sprintf("%.0f fps  %.2f ms", st.FPS, float64(st.FrameTime.Microseconds())/1000)
		}),
		stat(func(st profiler.Stats) string {
			return fmt.Sprintf("heap %.1f MB  sys %.1f MB", st.HeapMB, st.SysMB)
		}),
		stat(func(st profiler.Stats) string {
			return fmt.Sprintf("gc %d  max pause %s", st.GCCount, st.MaxPause)
		}),
	).At(ui.DefaultPanelWidth+12, 6)
}
