package main

import "testing"

func TestParseSize(t *testing.T) {
	cases := []struct {
		in            string
		width, height int
		wantErr       bool
	}{
		{"1280x720", 1280, 720, false},
		{"640x480", 640, 480, false},
		{"1280", 0, 0, true},
		{"x720", 0, 0, true},
		{"640x", 0, 0, true},
		{"0x720", 0, 0, true},
		{"-640x480", 0, 0, true},
		{"640x480x2", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, c := range cases {
		width, height, err := parseSize(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("%q: err = %v, wantErr %v", c.in, err, c.wantErr)
			continue
		}
		if width != c.width || height != c.height {
			t.Errorf("%q: got %vx%v, want %vx%v", c.in, width, height, c.width, c.height)
		}
	}
}
