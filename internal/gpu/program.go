package gpu

import (
	"fmt"

	"spinner-editor/internal/utils"

	"github.com/go-gl/mathgl/mgl32"
)

// Program is a linked vertex/fragment pair with memoized uniform and attribute locations.
type Program struct {
	device     Device
	name       string
	handle     ProgramHandle
	uniforms   map[string]Location
	attributes map[string]Location
}

// Compile builds a program. On failure the returned program is unusable and the error
// says why; callers are expected to stop rather than retry per frame.
func Compile(device Device, source ProgramSource) (*Program, error) {
	program := &Program{
		device:     device,
		name:       source.Name,
		uniforms:   make(map[string]Location),
		attributes: make(map[string]Location),
	}

	var handle ProgramHandle
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("compile panic: %v", r)
			}
		}()
		handle, err = device.CompileProgram(source)
	}()

	if err != nil {
		utils.Error("Shader: %s - Failed to compile: %v", source.Name, err)
		return program, fmt.Errorf("shader %s: %w", source.Name, err)
	}

	program.handle = handle
	utils.Info("Shader: %s - Loaded successfully (ID: %d)", source.Name, handle)
	return program, nil
}

func (p *Program) Name() string          { return p.name }
func (p *Program) Handle() ProgramHandle { return p.handle }
func (p *Program) Valid() bool           { return p.handle != 0 }

func (p *Program) Use() {
	if !p.Valid() {
		panic("gpu: use of unlinked program " + p.name)
	}
	p.device.UseProgram(p.handle)
}

func (p *Program) UniformLocation(name string) Location {
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	loc := NotFound
	if p.Valid() {
		loc = p.device.UniformLocation(p.handle, name)
	}
	p.uniforms[name] = loc
	return loc
}

func (p *Program) AttributeLocation(name string) Location {
	if loc, ok := p.attributes[name]; ok {
		return loc
	}
	loc := NotFound
	if p.Valid() {
		loc = p.device.AttributeLocation(p.handle, name)
	}
	p.attributes[name] = loc
	return loc
}

func (p *Program) SetFloat(name string, v float32) {
	if loc := p.UniformLocation(name); loc != NotFound {
		p.device.Uniform1f(loc, v)
	}
}

func (p *Program) SetVec2(name string, v mgl32.Vec2) {
	if loc := p.UniformLocation(name); loc != NotFound {
		p.device.Uniform2f(loc, v[0], v[1])
	}
}

func (p *Program) SetVec3(name string, v mgl32.Vec3) {
	if loc := p.UniformLocation(name); loc != NotFound {
		p.device.Uniform3f(loc, v[0], v[1], v[2])
	}
}

func (p *Program) SetBool(name string, v bool) {
	if loc := p.UniformLocation(name); loc != NotFound {
		var i int32
		if v {
			i = 1
		}
		p.device.Uniform1i(loc, i)
	}
}

func (p *Program) SetMatrix(name string, m mgl32.Mat4) {
	if loc := p.UniformLocation(name); loc != NotFound {
		p.device.UniformMatrix4(loc, m)
	}
}

// SetTexture binds tex to unit and points the sampler uniform at it.
func (p *Program) SetTexture(name string, unit int, tex TextureHandle) {
	if loc := p.UniformLocation(name); loc != NotFound {
		p.device.BindSampler(loc, unit, tex)
	}
}

func (p *Program) Delete() {
	if p.handle != 0 {
		p.device.DeleteProgram(p.handle)
		p.handle = 0
	}
	p.uniforms = make(map[string]Location)
	p.attributes = make(map[string]Location)
}
