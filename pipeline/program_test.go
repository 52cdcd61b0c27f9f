package pipeline

import (
	"testing"
)

func TestGetImageBounds(t *testing.T) {
	var u Uniforms
	u.DefaultValues()
	p := GetProgram(0)

	cases := []struct{ width, height int }{
		{64, 48},
		{101, 57}, // odd dimensions
		{1, 1},
	}
	for _, c := range cases {
		img, err := p.GetImage(u, c.width, c.height)
		if err != nil {
			t.Fatal(err)
		}
		b := img.Bounds()
		if b.Dx() != c.width || b.Dy() != c.height {
			t.Errorf("%vx%v: got bounds %v", c.width, c.height, b)
		}
	}
}

func TestGetImageNoCPUImplementation(t *testing.T) {
	p := Program{Name: "gpu-only"}
	if _, err := p.GetImage(Uniforms{}, 8, 8); err != ErrNoCPUImplementation {
		t.Errorf("got %v, want ErrNoCPUImplementation", err)
	}
}
