// Package settings holds the user-tunable engine options, read from a TOML file and
// optionally hot-reloaded while the engine runs.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// DefaultFile is the settings file looked up in the working directory.
const DefaultFile = "glace.toml"

// Settings is the world resource every apply system reads from. Any field may be changed at
// runtime, by the settings panel or by editing the file.
type Settings struct {
	Window WindowSettings `toml:"window"`
	Render RenderSettings `toml:"render"`
	Camera CameraSettings `toml:"camera"`
	Light  LightSettings  `toml:"light"`
	Model  ModelSettings  `toml:"model"`
}

// WindowSettings only take effect at startup.
type WindowSettings struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
}

type RenderSettings struct {
	// MSAA is the sample count; anything but 4 means no multisampling.
	MSAA        uint32     `toml:"msaa"`
	PresentMode string     `toml:"present_mode"`
	ClearColor  [4]float32 `toml:"clear_color"`
	ShowDepth   bool       `toml:"show_depth"`
}

type CameraSettings struct {
	Speed float32 `toml:"speed"`
	// Near and Far also bound the depth visualization.
	Near float32 `toml:"near"`
	Far  float32 `toml:"far"`
}

type LightSettings struct {
	Rotate bool `toml:"rotate"`
	// Speed is in revolutions per second.
	Speed float32    `toml:"speed"`
	Color [3]float32 `toml:"color"`
}

type ModelSettings struct {
	// Path is the model spawned at startup. A missing file is skipped.
	Path      string  `toml:"path"`
	Gloss     float32 `toml:"gloss"`
	Scale     float32 `toml:"scale"`
	Wireframe bool    `toml:"wireframe"`
}

// Defaults returns the settings used when no file exists.
func Defaults() Settings {
	return Settings{
		Window: WindowSettings{Width: 1280, Height: 720, Title: "glace"},
		Render: RenderSettings{
			MSAA:        4,
			PresentMode: "fifo",
			ClearColor:  [4]float32{0.1, 0.1, 0.1, 1},
		},
		Camera: CameraSettings{Speed: 4, Near: 0.1, Far: 100},
		Light:  LightSettings{Rotate: true, Speed: 0.1, Color: [3]float32{1, 1, 1}},
		Model: ModelSettings{
			Path:  "assets/FlightHelmet/FlightHelmet.gltf",
			Gloss: 1,
			Scale: 5,
		},
	}
}

// Decode parses TOML over the defaults, so a partial file only overrides what it names.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - Settings: the decoded settings
//   - error: error if the document is malformed or names an unknown key
func Decode(data []byte) (Settings, error) {
	s := Defaults()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return Settings{}, fmt.Errorf("settings %d:%d: %w", row, col, err)
		}
		return Settings{}, fmt.Errorf("settings: %w", err)
	}
	return s, nil
}

// Load reads a settings file. A missing file yields the defaults.
//
// Parameters:
//   - path: the TOML file
//
// Returns:
//   - Settings: the loaded settings
//   - error: error if the file exists but cannot be read or decoded
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Defaults(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	return Decode(data)
}

// Save writes s as TOML.
func (s Settings) Save(path string) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
