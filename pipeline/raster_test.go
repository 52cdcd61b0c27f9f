package pipeline

import (
	"context"
	"image"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

func TestQuadCoversClipSpace(t *testing.T) {
	const width, height = 640, 480
	quad := Quad(width, height, PlaneExtent(width, height))
	scale := QuadScale(width, height)

	want := [4]mgl32.Vec4{
		{-1, 1, 0, 1},
		{1, 1, 0, 1},
		{-1, -1, 0, 1},
		{1, -1, 0, 1},
	}
	for i, v := range quad {
		clip, _ := TransformVertex(v, scale)
		if clip != want[i] {
			t.Errorf("corner %v: got %v, want %v", i, clip, want[i])
		}
	}
}

func TestPlaneExtentAspect(t *testing.T) {
	if e := PlaneExtent(200, 100); e != (mgl32.Vec2{2, 1}) {
		t.Errorf("landscape: got %v, want (2, 1)", e)
	}
	if e := PlaneExtent(100, 400); e != (mgl32.Vec2{1, 4}) {
		t.Errorf("portrait: got %v, want (1, 4)", e)
	}
	if e := PlaneExtent(300, 300); e != (mgl32.Vec2{1, 1}) {
		t.Errorf("square: got %v, want (1, 1)", e)
	}
}

func TestVaryingLinearInterpolation(t *testing.T) {
	tri := triangle{
		ndc:   [3]mgl32.Vec2{{-1, -1}, {1, -1}, {-1, 1}},
		plane: [3]mgl32.Vec2{{0, 0}, {4, 0}, {0, 4}},
	}

	cases := []struct {
		at   mgl32.Vec2
		want mgl32.Vec2
	}{
		{mgl32.Vec2{-1, -1}, mgl32.Vec2{0, 0}},
		{mgl32.Vec2{1, -1}, mgl32.Vec2{4, 0}},
		{mgl32.Vec2{0, -1}, mgl32.Vec2{2, 0}},    // edge midpoint
		{mgl32.Vec2{-1, 0}, mgl32.Vec2{0, 2}},    // edge midpoint
		{mgl32.Vec2{0, 0}, mgl32.Vec2{2, 2}},     // hypotenuse midpoint
		{mgl32.Vec2{-1.0 / 3, -1.0 / 3}, mgl32.Vec2{4.0 / 3, 4.0 / 3}}, // centroid
	}
	for _, c := range cases {
		got, ok := tri.varyingAt(c.at)
		if !ok {
			t.Errorf("%v: reported outside triangle", c.at)
			continue
		}
		if math.Abs(float64(got[0]-c.want[0])) > 1e-5 ||
			math.Abs(float64(got[1]-c.want[1])) > 1e-5 {
			t.Errorf("%v: got %v, want %v", c.at, got, c.want)
		}
	}

	if _, ok := tri.varyingAt(mgl32.Vec2{0.5, 0.5}); ok {
		t.Error("point outside triangle reported inside")
	}
}

func TestRenderFrameMatchesDirectEvaluation(t *testing.T) {
	const width, height = 48, 32
	extent := PlaneExtent(width, height)
	quad := Quad(width, height, extent)
	scale := QuadScale(width, height)
	affine := ComplexAffineUniform{
		Alpha: mgl64.Vec2{1.3, 0.1},
		Delta: mgl64.Vec2{-0.5, 0},
	}
	budget := IterationUniform{MaxIterations: 50}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	err := RenderFrame(context.Background(), img, quad, scale, affine, budget, nil)
	if err != nil {
		t.Fatal(err)
	}

	// The parallel render must agree bitwise with sequential
	// evaluation of the same pipeline.
	tris := assemble(quad, scale)
	for y := 0; y < height; y++ {
		ny := 1 - (float32(y)+0.5)/height*2
		for x := 0; x < width; x++ {
			nx := (float32(x)+0.5)/width*2 - 1

			plane, ok := tris[0].varyingAt(mgl32.Vec2{nx, ny})
			if !ok {
				plane, ok = tris[1].varyingAt(mgl32.Vec2{nx, ny})
			}
			if !ok {
				t.Fatalf("pixel (%v, %v) outside both triangles", x, y)
			}

			// The quad's plane coordinate is affine in the pixel
			// position, so interpolation reproduces the analytic
			// coordinate up to rounding.
			ax := nx * extent[0]
			ay := ny * extent[1]
			if math.Abs(float64(plane[0]-ax)) > 1e-5 || math.Abs(float64(plane[1]-ay)) > 1e-5 {
				t.Fatalf("pixel (%v, %v): varying %v, analytic (%v, %v)", x, y, plane, ax, ay)
			}

			want := ToNRGBA(ShadeFragment(plane, affine, budget))
			if got := img.NRGBAAt(x, y); got != want {
				t.Fatalf("pixel (%v, %v): got %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestRenderFrameDeterministic(t *testing.T) {
	const width, height = 33, 17
	quad := Quad(width, height, PlaneExtent(width, height))
	scale := QuadScale(width, height)
	affine := ComplexAffineUniform{Alpha: mgl64.Vec2{1, 0.5}, Delta: mgl64.Vec2{-0.7, 0.2}}
	budget := IterationUniform{MaxIterations: 80}

	a := image.NewNRGBA(image.Rect(0, 0, width, height))
	b := image.NewNRGBA(image.Rect(0, 0, width, height))
	if err := RenderFrame(context.Background(), a, quad, scale, affine, budget, nil); err != nil {
		t.Fatal(err)
	}
	if err := RenderFrame(context.Background(), b, quad, scale, affine, budget, nil); err != nil {
		t.Fatal(err)
	}

	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("renders differ at byte %v", i)
		}
	}
}

func TestRenderFrameCoversEveryPixel(t *testing.T) {
	const width, height = 31, 19
	quad := Quad(width, height, PlaneExtent(width, height))

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	err := RenderFrame(
		context.Background(), img, quad,
		QuadScale(width, height),
		ComplexAffineUniform{Alpha: mgl64.Vec2{1, 0}},
		IterationUniform{MaxIterations: 10},
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if img.NRGBAAt(x, y).A != 255 {
				t.Fatalf("pixel (%v, %v) not covered", x, y)
			}
		}
	}
}

func TestRenderFrameRowProgress(t *testing.T) {
	const width, height = 8, 21
	quad := Quad(width, height, PlaneExtent(width, height))

	done := make(chan struct{}, height)
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	err := RenderFrame(
		context.Background(), img, quad,
		QuadScale(width, height),
		ComplexAffineUniform{Alpha: mgl64.Vec2{1, 0}},
		IterationUniform{MaxIterations: 4},
		func() { done <- struct{}{} },
	)
	if err != nil {
		t.Fatal(err)
	}
	if len(done) != height {
		t.Errorf("got %v row callbacks, want %v", len(done), height)
	}
}

func TestRenderFrameCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	err := RenderFrame(
		ctx, img, Quad(64, 64, PlaneExtent(64, 64)),
		QuadScale(64, 64),
		ComplexAffineUniform{Alpha: mgl64.Vec2{1, 0}},
		IterationUniform{MaxIterations: 100000},
		nil,
	)
	if err != context.Canceled {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
