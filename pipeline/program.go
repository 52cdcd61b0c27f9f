package pipeline

import (
	"errors"
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

var ErrNoCPUImplementation = errors.New("program does not have a CPU implementation")

// PixelFunc mirrors a program's fragment shader on the CPU. pos is
// the raw plane coordinate, before the complex affine map.
type PixelFunc func(uniforms Uniforms, pos mgl32.Vec2) mgl32.Vec4

// Program pairs a GPU shader pair with its CPU mirror. The two must
// agree numerically; the CPU side is what image export and the tests
// run.
type Program struct {
	Name           string
	VertexShader   string
	FragmentShader string
	GetPixel       PixelFunc
}

var programs []Program

func NumPrograms() int {
	return len(programs)
}

func GetProgram(i int) Program {
	return programs[i]
}

func NewProgram(p Program) {
	programs = append(programs, p)
}

// GetImage samples the program over a centered pixel grid of the
// given size. The longer axis spans the aspect-corrected plane
// extent, matching what the GPU path shows in a window of the same
// proportions.
func (p *Program) GetImage(uniforms Uniforms, width, height int) (Image, error) {
	if p.GetPixel == nil {
		return nil, ErrNoCPUImplementation
	}

	extent := PlaneExtent(width, height)

	return &programImage{
		uniforms: uniforms,
		bounds: image.Rect(
			-width/2,
			-height/2,
			width-width/2,
			height-height/2,
		),
		planeScale: mgl32.Vec2{
			extent[0] / (float32(width) / 2),
			extent[1] / (float32(height) / 2),
		},
		pixelFunc: p.GetPixel,
	}, nil
}

// Image is a continuous image over plane coordinates. Adapters in the
// host wrap it for antialiasing and conversion to image.Image.
type Image interface {
	GetPixel(mgl32.Vec2) mgl32.Vec4
	Bounds() image.Rectangle
}

type programImage struct {
	uniforms   Uniforms
	bounds     image.Rectangle
	planeScale mgl32.Vec2
	pixelFunc  PixelFunc
}

func (i *programImage) GetPixel(pos mgl32.Vec2) mgl32.Vec4 {
	return i.pixelFunc(i.uniforms, mgl32.Vec2{
		pos[0] * i.planeScale[0],
		pos[1] * i.planeScale[1],
	})
}

func (i *programImage) Bounds() image.Rectangle {
	return i.bounds
}
