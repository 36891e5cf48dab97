// pre_processor.go implements the glace WGSL pre-processor. It scans shader source for
// @glace: directives, splices in shared struct snippets and resolves conditional blocks
// against a set of defines, so one WGSL file can serve several pipeline variants.
//
// Directives occupy a whole line:
//   - @glace:include <name> injects a registered snippet (camera, light, vertex, instance, material)
//   - @glace:if <DEFINE> / @glace:else / @glace:end keep or drop the enclosed lines
package shader

import (
	_ "embed"
	"fmt"
	"strings"
)

const directivePrefix = "@glace:"

//go:embed assets/camera.wgsl
var cameraSnippet string

//go:embed assets/light_uniform.wgsl
var lightSnippet string

//go:embed assets/vertex.wgsl
var vertexSnippet string

//go:embed assets/instance.wgsl
var instanceSnippet string

//go:embed assets/material.wgsl
var materialSnippet string

// PreProcessor expands @glace: directives in WGSL source.
type PreProcessor interface {
	// Process expands includes and resolves conditionals.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//   - defines: the names that are true for @glace:if
	//
	// Returns:
	//   - string: WGSL with every directive removed
	//   - error: error on an unknown include or unbalanced conditional
	Process(source string, defines ...string) (string, error)
}

type preProcessor struct {
	registry map[string]string
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor returns a pre-processor with the shared snippets registered.
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		registry: map[string]string{
			"camera":   cameraSnippet,
			"light":    lightSnippet,
			"vertex":   vertexSnippet,
			"instance": instanceSnippet,
			"material": materialSnippet,
		},
	}
}

func (p *preProcessor) Process(source string, defines ...string) (string, error) {
	set := make(map[string]bool, len(defines))
	for _, d := range defines {
		set[d] = true
	}

	// each frame is whether the enclosing block is emitting and whether its if-branch was taken
	type frame struct{ emitting, taken bool }
	stack := []frame{{emitting: true}}

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		rest, ok := strings.CutPrefix(trimmed, directivePrefix)
		top := stack[len(stack)-1]
		if !ok {
			if top.emitting {
				out = append(out, line)
			}
			continue
		}

		verb, arg, _ := strings.Cut(rest, " ")
		arg = strings.TrimSpace(arg)
		switch verb {
		case "include":
			if !top.emitting {
				continue
			}
			snippet, known := p.registry[arg]
			if !known {
				return "", fmt.Errorf("line %d: unknown include %q", i+1, arg)
			}
			out = append(out, strings.TrimRight(snippet, "\n"))
		case "if":
			if arg == "" {
				return "", fmt.Errorf("line %d: @glace:if needs a define", i+1)
			}
			cond := set[arg]
			stack = append(stack, frame{emitting: top.emitting && cond, taken: cond})
		case "else":
			if len(stack) == 1 {
				return "", fmt.Errorf("line %d: @glace:else without @glace:if", i+1)
			}
			parent := stack[len(stack)-2]
			stack[len(stack)-1] = frame{emitting: parent.emitting && !top.taken, taken: true}
		case "end":
			if len(stack) == 1 {
				return "", fmt.Errorf("line %d: @glace:end without @glace:if", i+1)
			}
			stack = stack[:len(stack)-1]
		default:
			return "", fmt.Errorf("line %d: unknown directive %q", i+1, verb)
		}
	}
	if len(stack) != 1 {
		return "", fmt.Errorf("unterminated @glace:if")
	}
	return strings.Join(out, "\n"), nil
}
