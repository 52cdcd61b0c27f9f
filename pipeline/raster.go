package pipeline

import (
	"context"
	"image"
	"image/color"
	"runtime"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Quad builds the full-screen quad for a framebuffer of the given
// size, in triangle-strip order. Positions are in pixel units with y
// growing downwards; QuadScale maps them onto the whole of clip
// space. Plane coordinates span ±extent with the imaginary axis
// pointing up.
func Quad(width, height int, extent mgl32.Vec2) [4]Vertex {
	w, h := float32(width), float32(height)
	return [4]Vertex{
		{Position: mgl32.Vec3{0, 0, 0}, PlaneCoord: mgl32.Vec2{-extent[0], extent[1]}},
		{Position: mgl32.Vec3{w, 0, 0}, PlaneCoord: mgl32.Vec2{extent[0], extent[1]}},
		{Position: mgl32.Vec3{0, -h, 0}, PlaneCoord: mgl32.Vec2{-extent[0], -extent[1]}},
		{Position: mgl32.Vec3{w, -h, 0}, PlaneCoord: mgl32.Vec2{extent[0], -extent[1]}},
	}
}

// QuadScale is the scale uniform that fits Quad's pixel-space
// positions to clip space.
func QuadScale(width, height int) ScaleUniform {
	return ScaleUniform{Scale: mgl32.Vec2{
		2 / float32(width),
		2 / float32(height),
	}}
}

// PlaneExtent is the aspect-corrected sampling half-extent: the
// shorter axis spans [-1, 1], the longer one proportionally more.
func PlaneExtent(width, height int) mgl32.Vec2 {
	if width >= height {
		return mgl32.Vec2{float32(width) / float32(height), 1}
	}
	return mgl32.Vec2{1, float32(height) / float32(width)}
}

// triangle is a post-transform primitive ready for rasterisation.
type triangle struct {
	ndc   [3]mgl32.Vec2
	plane [3]mgl32.Vec2
}

// assemble runs the vertex stage over the quad and splits the strip
// into its two triangles. The clip-space w is always 1, so the NDC
// position is the clip position with no perspective divide.
func assemble(quad [4]Vertex, scale ScaleUniform) [2]triangle {
	var ndc, plane [4]mgl32.Vec2
	for i, v := range quad {
		clip, p := TransformVertex(v, scale)
		ndc[i] = mgl32.Vec2{clip[0], clip[1]}
		plane[i] = p
	}
	return [2]triangle{
		{
			ndc:   [3]mgl32.Vec2{ndc[0], ndc[1], ndc[2]},
			plane: [3]mgl32.Vec2{plane[0], plane[1], plane[2]},
		},
		{
			ndc:   [3]mgl32.Vec2{ndc[1], ndc[3], ndc[2]},
			plane: [3]mgl32.Vec2{plane[1], plane[3], plane[2]},
		},
	}
}

// varyingAt interpolates the plane coordinate at NDC point p,
// linearly in screen space. ok is false when p lies outside the
// triangle or the triangle is degenerate.
func (t *triangle) varyingAt(p mgl32.Vec2) (plane mgl32.Vec2, ok bool) {
	d := (t.ndc[1][1]-t.ndc[2][1])*(t.ndc[0][0]-t.ndc[2][0]) +
		(t.ndc[2][0]-t.ndc[1][0])*(t.ndc[0][1]-t.ndc[2][1])
	if d == 0 {
		return mgl32.Vec2{}, false
	}

	w0 := ((t.ndc[1][1]-t.ndc[2][1])*(p[0]-t.ndc[2][0]) +
		(t.ndc[2][0]-t.ndc[1][0])*(p[1]-t.ndc[2][1])) / d
	w1 := ((t.ndc[2][1]-t.ndc[0][1])*(p[0]-t.ndc[2][0]) +
		(t.ndc[0][0]-t.ndc[2][0])*(p[1]-t.ndc[2][1])) / d
	w2 := 1 - w0 - w1
	if w0 < 0 || w1 < 0 || w2 < 0 {
		return mgl32.Vec2{}, false
	}

	return mgl32.Vec2{
		w0*t.plane[0][0] + w1*t.plane[1][0] + w2*t.plane[2][0],
		w0*t.plane[0][1] + w1*t.plane[1][1] + w2*t.plane[2][1],
	}, true
}

// RenderFrame runs both pipeline stages over every pixel of dst,
// sampling at pixel centers. Fragment invocations are independent, so
// rows are fanned out over one worker per CPU; the result is
// identical to a sequential run. rowDone, if not nil, is called once
// per finished row from worker goroutines.
func RenderFrame(
	ctx context.Context,
	dst *image.NRGBA,
	quad [4]Vertex,
	scale ScaleUniform,
	affine ComplexAffineUniform,
	budget IterationUniform,
	rowDone func(),
) error {
	bounds := dst.Bounds()
	if bounds.Empty() {
		return nil
	}

	tris := assemble(quad, scale)
	w := float32(bounds.Dx())
	h := float32(bounds.Dy())

	rows := make(chan int)
	var wg sync.WaitGroup
	for n := 0; n < runtime.NumCPU(); n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for y := range rows {
				ny := 1 - (float32(y-bounds.Min.Y)+0.5)/h*2
				for x := bounds.Min.X; x < bounds.Max.X; x++ {
					nx := (float32(x-bounds.Min.X)+0.5)/w*2 - 1
					p := mgl32.Vec2{nx, ny}

					plane, ok := tris[0].varyingAt(p)
					if !ok {
						plane, ok = tris[1].varyingAt(p)
					}
					if !ok {
						continue
					}

					dst.SetNRGBA(x, y, ToNRGBA(ShadeFragment(plane, affine, budget)))
				}
				if rowDone != nil {
					rowDone()
				}
			}
		}()
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		if ctx.Err() != nil {
			break
		}
		rows <- y
	}
	close(rows)
	wg.Wait()

	return ctx.Err()
}

// ToNRGBA converts a stage output colour to 8-bit non-premultiplied
// RGBA. Channels are in [0, 1); alpha is always 1.
func ToNRGBA(c mgl32.Vec4) color.NRGBA {
	return color.NRGBA{
		R: uint8(c[0] * 255),
		G: uint8(c[1] * 255),
		B: uint8(c[2] * 255),
		A: uint8(c[3] * 255),
	}
}
