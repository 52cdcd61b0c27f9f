package pipeline

import (
	_ "embed"

	"github.com/go-gl/mathgl/mgl32"
)

//go:embed shaders/mandelbrot.vert
var mandelbrotVertex string

//go:embed shaders/mandelbrot.frag
var mandelbrotFragment string

func init() {
	NewProgram(Program{
		Name:           "mandelbrot",
		VertexShader:   mandelbrotVertex,
		FragmentShader: mandelbrotFragment,
		GetPixel: func(uniforms Uniforms, pos mgl32.Vec2) mgl32.Vec4 {
			return ShadeFragment(pos, uniforms.Affine(), uniforms.Budget())
		},
	})
}
