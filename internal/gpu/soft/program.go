package soft

import (
	"fmt"
	"regexp"
	"strings"

	"spinner-editor/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	uniformDecl   = regexp.MustCompile(`(?m)^\s*uniform\s+(\w+)\s+(\w+)\s*;`)
	attributeDecl = regexp.MustCompile(`(?m)^\s*(?:layout\s*\([^)]*\)\s*)?in\s+(\w+)\s+(\w+)\s*;`)
	mainDecl      = regexp.MustCompile(`void\s+main\s*\(\s*\)`)
)

type program struct {
	name       string
	kernel     kernel
	uniforms   map[string]gpu.Location
	attributes map[string]gpu.Location

	floats   map[gpu.Location]rgba
	ints     map[gpu.Location]int32
	matrices map[gpu.Location]mgl32.Mat4
}

// link resolves the kernel for source.Name and reads the declared interface
// out of the GLSL text.
func link(source gpu.ProgramSource) (*program, error) {
	k, ok := kernels[source.Name]
	if !ok {
		return nil, fmt.Errorf("no kernel for program %q", source.Name)
	}
	if !mainDecl.MatchString(source.Vertex) {
		return nil, fmt.Errorf("vertex shader: missing main")
	}
	if !mainDecl.MatchString(source.Fragment) {
		return nil, fmt.Errorf("fragment shader: missing main")
	}

	p := &program{
		name:       source.Name,
		kernel:     k,
		uniforms:   make(map[string]gpu.Location),
		attributes: make(map[string]gpu.Location),
		floats:     make(map[gpu.Location]rgba),
		ints:       make(map[gpu.Location]int32),
		matrices:   make(map[gpu.Location]mgl32.Mat4),
	}

	for _, src := range []string{source.Vertex, source.Fragment} {
		for _, m := range uniformDecl.FindAllStringSubmatch(src, -1) {
			if _, seen := p.uniforms[m[2]]; !seen {
				p.uniforms[m[2]] = gpu.Location(len(p.uniforms))
			}
		}
	}
	for _, m := range attributeDecl.FindAllStringSubmatch(source.Vertex, -1) {
		if !strings.HasPrefix(m[2], "gl_") {
			p.attributes[m[2]] = gpu.Location(len(p.attributes))
		}
	}

	return p, nil
}

func (p *program) float(name string) float32 {
	return p.floats[p.location(name)][0]
}

func (p *program) vec2(name string) mgl32.Vec2 {
	v := p.floats[p.location(name)]
	return mgl32.Vec2{v[0], v[1]}
}

func (p *program) vec3(name string) mgl32.Vec3 {
	v := p.floats[p.location(name)]
	return mgl32.Vec3{v[0], v[1], v[2]}
}

func (p *program) boolean(name string) bool {
	return p.ints[p.location(name)] != 0
}

func (p *program) location(name string) gpu.Location {
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	return gpu.NotFound
}
