package shader

import (
	"embed"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"spinner-editor/internal/gpu"
	"spinner-editor/internal/utils"
)

// Program names. Each maps to glsl/<name>.frag paired with glsl/quad.vert.
const (
	Simple       = "simple"
	Spinner      = "spinner"
	GaussianBlur = "gaussianBlur"
	HitTest      = "hitTest"
)

const vertexFile = "quad.vert"

//go:embed glsl
var builtin embed.FS

// Names lists every built-in program.
func Names() []string {
	return []string{Simple, Spinner, GaussianBlur, HitTest}
}

// Preprocess prepends the GLSL version and defines and expands #include lines.
// Includes resolve against the asset directory first, then the built-in sources.
func Preprocess(source string, defines map[string]int, name string) (string, error) {
	var sb strings.Builder
	sb.WriteString("#version 330\n")

	keys := make([]string, 0, len(defines))
	for k := range defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("#define %s %d\n", k, defines[k]))
	}
	if _, exists := defines["MAX_BLUR_TAPS"]; !exists {
		sb.WriteString("#define MAX_BLUR_TAPS 64\n")
	}

	included := make(map[string]bool)
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#include \"") && strings.HasSuffix(trimmed, "\"") {
			includeFile := strings.TrimSpace(trimmed[len("#include \"") : len(trimmed)-1])
			if included[includeFile] {
				continue
			}
			content, err := readSource(includeFile)
			if err != nil {
				return "", fmt.Errorf("shader %s: include %s: %w", name, includeFile, err)
			}
			sb.WriteString(strings.Trim(content, "\ufeff"))
			sb.WriteString("\n")
			included[includeFile] = true
			continue
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// Load returns the preprocessed source pair for a program name.
func Load(name string, defines map[string]int) (gpu.ProgramSource, error) {
	if name == "" {
		return gpu.ProgramSource{}, fmt.Errorf("shader: empty program name")
	}

	vertex, err := readSource(vertexFile)
	if err != nil {
		return gpu.ProgramSource{}, fmt.Errorf("shader %s: vertex: %w", name, err)
	}
	fragment, err := readSource(name + ".frag")
	if err != nil {
		return gpu.ProgramSource{}, fmt.Errorf("shader %s: fragment: %w", name, err)
	}

	utils.Debug("Shader: Preprocessing %s (Defines: %v)", name, defines)

	src := gpu.ProgramSource{Name: name}
	if src.Vertex, err = Preprocess(vertex, defines, name); err != nil {
		return gpu.ProgramSource{}, err
	}
	if src.Fragment, err = Preprocess(fragment, defines, name); err != nil {
		return gpu.ProgramSource{}, err
	}
	return src, nil
}

// LoadAll compiles every built-in program on device.
func LoadAll(device gpu.Device) (map[string]*gpu.Program, error) {
	programs := make(map[string]*gpu.Program, len(Names()))
	for _, name := range Names() {
		src, err := Load(name, nil)
		if err != nil {
			return nil, err
		}
		program, err := gpu.Compile(device, src)
		if err != nil {
			for _, p := range programs {
				p.Delete()
			}
			return nil, err
		}
		programs[name] = program
	}
	return programs, nil
}

// readSource prefers an override under <assets>/shaders/ over the embedded file.
func readSource(file string) (string, error) {
	override := utils.ResolveAssetPath(path.Join("shaders", file))
	if data, err := os.ReadFile(override); err == nil {
		utils.Debug("Shader: Using override %s", override)
		return string(data), nil
	}

	data, err := builtin.ReadFile(path.Join("glsl", file))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
