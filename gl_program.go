package main

import (
	"fmt"
	"log"
	"reflect"
	"runtime"
	"strings"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/swagner/mandelzoom/pipeline"
)

// glProgram owns one compiled shader pair and the quad geometry in
// the current GL context. Both window hosts drive it the same way:
// uploadQuad on resize, loadUniforms then draw every frame.
type glProgram struct {
	program          uint32
	vao              uint32
	vbo              uint32
	uniformLocations map[string]int32
}

const quadFloats = 5 // vec3 position + vec2 plane coordinate

func newGLProgram(p pipeline.Program) (*glProgram, error) {
	vertexShader, err := compileShader(p.VertexShader+"\x00", gl.VERTEX_SHADER)
	if err != nil {
		return nil, err
	}
	defer gl.DeleteShader(vertexShader)

	fragmentShader, err := compileShader(p.FragmentShader+"\x00", gl.FRAGMENT_SHADER)
	if err != nil {
		return nil, err
	}
	defer gl.DeleteShader(fragmentShader)

	g := &glProgram{}
	g.program = gl.CreateProgram()
	gl.AttachShader(g.program, vertexShader)
	gl.AttachShader(g.program, fragmentShader)
	gl.LinkProgram(g.program)

	var status int32
	gl.GetProgramiv(g.program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var l int32
		gl.GetProgramiv(g.program, gl.INFO_LOG_LENGTH, &l)

		infoLog := strings.Repeat("\x00", int(l+1))
		gl.GetProgramInfoLog(g.program, l, nil, gl.Str(infoLog))
		return nil, fmt.Errorf("failed to link %v: %v", p.Name, infoLog)
	}

	gl.UseProgram(g.program)
	gl.BindFragDataLocation(g.program, 0, gl.Str("outputColor\x00"))

	g.uniformLocations = make(map[string]int32)
	t := reflect.TypeOf(pipeline.Uniforms{})
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Tag.Get("uniform")
		if name == "" {
			continue
		}
		g.uniformLocations[name] = gl.GetUniformLocation(g.program, gl.Str(name+"\x00"))
	}

	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)

	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)

	vertAttrib := uint32(gl.GetAttribLocation(g.program, gl.Str("vert\x00")))
	gl.EnableVertexAttribArray(vertAttrib)
	gl.VertexAttribPointerWithOffset(vertAttrib, 3, gl.FLOAT, false, quadFloats*4, 0)

	planeAttrib := uint32(gl.GetAttribLocation(g.program, gl.Str("planeCoord\x00")))
	gl.EnableVertexAttribArray(planeAttrib)
	gl.VertexAttribPointerWithOffset(planeAttrib, 2, gl.FLOAT, false, quadFloats*4, 3*4)

	return g, nil
}

// uploadQuad replaces the quad geometry; called on every resize.
func (g *glProgram) uploadQuad(quad [4]pipeline.Vertex) {
	data := make([]float32, 0, len(quad)*quadFloats)
	for _, v := range quad {
		data = append(data,
			v.Position[0], v.Position[1], v.Position[2],
			v.PlaneCoord[0], v.PlaneCoord[1],
		)
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.DYNAMIC_DRAW)
}

// loadUniforms uploads every tagged field of the uniform struct to
// its location, switching the GL call on the field type.
func (g *glProgram) loadUniforms(uniforms *pipeline.Uniforms) {
	v := reflect.ValueOf(uniforms).Elem()
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		name := t.Field(i).Tag.Get("uniform")
		if name == "" {
			continue
		}
		loc, ok := g.uniformLocations[name]
		if !ok || loc < 0 {
			continue
		}

		f := v.Field(i)
		ptr := f.Addr().UnsafePointer()

		switch f.Type() {
		case reflect.TypeOf(mgl32.Vec2{}):
			gl.Uniform2fv(loc, 1, (*float32)(ptr))
		case reflect.TypeOf(mgl64.Vec2{}):
			gl.Uniform2dv(loc, 1, (*float64)(ptr))
		case reflect.TypeOf(int32(0)):
			gl.Uniform1iv(loc, 1, (*int32)(ptr))
		case reflect.TypeOf(float32(0)):
			gl.Uniform1fv(loc, 1, (*float32)(ptr))
		case reflect.TypeOf(float64(0)):
			gl.Uniform1dv(loc, 1, (*float64)(ptr))
		default:
			log.Printf("unsupported uniform type %v", f.Type())
		}
	}
}

// draw renders the quad as a two-triangle strip.
func (g *glProgram) draw(uniforms *pipeline.Uniforms) {
	gl.UseProgram(g.program)
	g.loadUniforms(uniforms)
	gl.BindVertexArray(g.vao)
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
}

func (g *glProgram) delete() {
	gl.DeleteBuffers(1, &g.vbo)
	gl.DeleteVertexArrays(1, &g.vao)
	gl.DeleteProgram(g.program)
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	defer runtime.KeepAlive(source)
	cstring, free := gl.Strs(source)
	defer free()

	shader := gl.CreateShader(shaderType)
	gl.ShaderSource(shader, 1, cstring, nil)
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var l int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &l)

		infoLog := strings.Repeat("\x00", int(l+1))
		gl.GetShaderInfoLog(shader, l, nil, gl.Str(infoLog))
		return 0, fmt.Errorf("shader\n\"\n%v\n\"\nfailed to compile: %v", source, infoLog)
	}

	return shader, nil
}
