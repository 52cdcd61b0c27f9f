// Package pipeline implements the two shader stages that draw the
// fractal, both as embedded GLSL for the GPU and as pure Go functions
// producing the same numbers on the CPU.
//
// The GPU's three uniform blocks are modelled as three plain structs
// passed explicitly into the stage functions. The stage functions are
// total and keep no state; evaluating them twice with the same inputs
// yields identical results.
package pipeline

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Vertex is one corner of the rendered quad as the host supplies it:
// a model-space position and a parametric coordinate over the
// rendered plane.
type Vertex struct {
	Position   mgl32.Vec3
	PlaneCoord mgl32.Vec2
}

// ScaleUniform is consumed by the vertex stage only. It must not
// contain a zero component; a zero collapses the projection.
type ScaleUniform struct {
	Scale mgl32.Vec2
}

// ComplexAffineUniform maps plane coordinates into the complex plane
// as c = Alpha*p + Delta, where Alpha*p is complex multiplication.
// Alpha carries rotation and zoom, Delta carries the pan offset.
// Both are double precision; single precision collapses fine detail
// under deep zoom.
type ComplexAffineUniform struct {
	Alpha mgl64.Vec2
	Delta mgl64.Vec2
}

// IterationUniform is the escape-time budget.
type IterationUniform struct {
	MaxIterations int32
}

// TransformVertex is the vertex stage. The fixed (-1, +1) offset
// anchors a unit quad so that the scale uniform alone refits the quad
// on resize. The plane coordinate passes through untouched.
func TransformVertex(v Vertex, scale ScaleUniform) (clip mgl32.Vec4, plane mgl32.Vec2) {
	clip = mgl32.Vec4{
		scale.Scale[0]*v.Position[0] - 1.0,
		scale.Scale[1]*v.Position[1] + 1.0,
		v.Position[2],
		1.0,
	}
	return clip, v.PlaneCoord
}

// SamplePoint widens the interpolated plane coordinate to double
// precision and applies the complex affine map.
func SamplePoint(plane mgl32.Vec2, affine ComplexAffineUniform) mgl64.Vec2 {
	cd := mgl64.Vec2{float64(plane[0]), float64(plane[1])}
	return mgl64.Vec2{
		affine.Alpha[0]*cd[0] - affine.Alpha[1]*cd[1] + affine.Delta[0],
		affine.Alpha[0]*cd[1] + affine.Alpha[1]*cd[0] + affine.Delta[1],
	}
}

// EscapeIterations runs z ← z² + c from z = c and returns the number
// of completed iterations, or MaxIterations if the point never left
// the escape radius.
//
// The escape test runs before z is assigned, so the returned index is
// the iteration at which escape was detected using the pre-escape z.
// Moving the test after the assignment shifts the rendered boundary
// by one iteration band.
func EscapeIterations(c mgl64.Vec2, budget IterationUniform) int32 {
	z := c
	var i int32
	for i = 0; i < budget.MaxIterations; i++ {
		x := z[0]*z[0] - z[1]*z[1] + c[0]
		y := z[1]*z[0] + z[0]*z[1] + c[1]
		if x*x+y*y > 4.0 {
			break
		}
		z[0] = x
		z[1] = y
	}
	return i
}

// ShadeEscape maps an escape index to an opaque colour. Escape speed
// brightens red first, then green, then blue; points that never
// escape are black. The division is skipped when i == MaxIterations,
// which also covers a budget of zero.
func ShadeEscape(i int32, budget IterationUniform) mgl32.Vec4 {
	var r float32
	if i < budget.MaxIterations {
		r = float32(i) / float32(budget.MaxIterations)
	}
	g := r * r
	b := g * g
	return mgl32.Vec4{r, g, b, 1.0}
}

// ShadeFragment is the fragment stage: one interpolated plane
// coordinate in, one colour out.
func ShadeFragment(plane mgl32.Vec2, affine ComplexAffineUniform, budget IterationUniform) mgl32.Vec4 {
	return ShadeEscape(EscapeIterations(SamplePoint(plane, affine), budget), budget)
}
