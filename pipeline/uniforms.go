package pipeline

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Uniforms is the host-owned view state for one program. The struct
// tags name the GLSL uniform each field is uploaded to; the fields
// split into the three per-stage uniform structs via ViewScale,
// Affine and Budget.
//
// Alpha and Delta together are the complex affine map c = Alpha*p +
// Delta from plane coordinates to the complex plane, so panning,
// zooming and rotating the view are all complex arithmetic on the
// same two values the fragment stage reads.
type Uniforms struct {
	Scale      mgl32.Vec2 `uniform:"scale"`
	Alpha      mgl64.Vec2 `uniform:"alpha"`
	Delta      mgl64.Vec2 `uniform:"delta"`
	Iterations int32      `uniform:"iterations"`
}

func (u *Uniforms) DefaultValues() {
	u.Scale = mgl32.Vec2{1, 1}
	u.Alpha = mgl64.Vec2{1.3, 0}
	u.Delta = mgl64.Vec2{-0.5, 0}
	u.Iterations = 64
}

func (u *Uniforms) ViewScale() ScaleUniform {
	return ScaleUniform{Scale: u.Scale}
}

func (u *Uniforms) Affine() ComplexAffineUniform {
	return ComplexAffineUniform{Alpha: u.Alpha, Delta: u.Delta}
}

func (u *Uniforms) Budget() IterationUniform {
	return IterationUniform{MaxIterations: u.Iterations}
}

// Zoom is the magnitude of Alpha; the half-extent of the view in
// complex-plane units along the shorter window axis.
func (u *Uniforms) Zoom() float64 {
	return math.Hypot(u.Alpha[0], u.Alpha[1])
}

// Rotation is the phase of Alpha in radians.
func (u *Uniforms) Rotation() float64 {
	return math.Atan2(u.Alpha[1], u.Alpha[0])
}

// Center is the complex-plane point at plane coordinate (0, 0).
func (u *Uniforms) Center() mgl64.Vec2 {
	return u.Delta
}

// Pan moves the view by d, given in plane coordinates.
func (u *Uniforms) Pan(d mgl64.Vec2) {
	u.Delta = cvec(cval(u.Delta) + cval(u.Alpha)*cval(d))
}

// ZoomAt multiplies the zoom by factor, keeping the complex-plane
// point under the plane coordinate at fixed on screen.
func (u *Uniforms) ZoomAt(factor float64, at mgl64.Vec2) {
	u.remap(complex(factor, 0), at)
}

// Rotate turns the view by radians about the plane coordinate at.
func (u *Uniforms) Rotate(radians float64, at mgl64.Vec2) {
	sin, cos := math.Sincos(radians)
	u.remap(complex(cos, sin), at)
}

// remap right-multiplies Alpha by m and fixes Delta up so that
// c(at) is unchanged.
func (u *Uniforms) remap(m complex128, at mgl64.Vec2) {
	alpha := cval(u.Alpha)
	next := alpha * m
	if next == 0 || math.IsInf(real(next), 0) || math.IsInf(imag(next), 0) {
		// zoomed past the range of float64
		return
	}
	u.Delta = cvec(cval(u.Delta) + (alpha-next)*cval(at))
	u.Alpha = cvec(next)
}

func cval(v mgl64.Vec2) complex128 { return complex(v[0], v[1]) }

func cvec(c complex128) mgl64.Vec2 { return mgl64.Vec2{real(c), imag(c)} }
