package main

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/gotk3/gotk3/gdk"

	"github.com/swagner/mandelzoom/pipeline"
)

func TestApplyScrollZooms(t *testing.T) {
	w := &RenderWindow{}
	w.uniforms.DefaultValues()
	zoom := w.uniforms.Zoom()

	anchor := mgl64.Vec2{0.25, -0.4}
	if !w.applyScroll(gdk.SCROLL_UP, anchor) {
		t.Fatal("scroll up not handled")
	}
	if got := w.uniforms.Zoom(); math.Abs(got-zoom*.9) > 1e-12 {
		t.Errorf("got zoom %v, want %v", got, zoom*.9)
	}

	if !w.applyScroll(gdk.SCROLL_DOWN, anchor) {
		t.Fatal("scroll down not handled")
	}
}

func TestApplyScrollHorizontalRotates(t *testing.T) {
	w := &RenderWindow{}
	w.uniforms.DefaultValues()
	zoom := w.uniforms.Zoom()

	anchor := mgl64.Vec2{0.25, -0.4}
	plane := mgl32.Vec2{float32(anchor[0]), float32(anchor[1])}
	before := pipeline.SamplePoint(plane, w.uniforms.Affine())

	if !w.applyScroll(gdk.SCROLL_LEFT, anchor) {
		t.Fatal("scroll left not handled")
	}

	after := pipeline.SamplePoint(plane, w.uniforms.Affine())
	if math.Abs(after[0]-before[0]) > 1e-12 || math.Abs(after[1]-before[1]) > 1e-12 {
		t.Errorf("anchor moved: %v -> %v", before, after)
	}
	if math.Abs(w.uniforms.Zoom()-zoom) > 1e-12 {
		t.Errorf("rotation changed zoom: %v -> %v", zoom, w.uniforms.Zoom())
	}
	if math.Abs(w.uniforms.Rotation()-.1) > 1e-12 {
		t.Errorf("got rotation %v, want 0.1", w.uniforms.Rotation())
	}

	if !w.applyScroll(gdk.SCROLL_RIGHT, anchor) {
		t.Fatal("scroll right not handled")
	}
	if math.Abs(w.uniforms.Rotation()) > 1e-12 {
		t.Errorf("opposite steps did not cancel: rotation %v", w.uniforms.Rotation())
	}
}

func TestApplyScrollIgnoresSmooth(t *testing.T) {
	w := &RenderWindow{}
	w.uniforms.DefaultValues()
	before := w.uniforms

	if w.applyScroll(gdk.SCROLL_SMOOTH, mgl64.Vec2{1, 1}) {
		t.Error("smooth scroll unexpectedly handled")
	}
	if w.uniforms != before {
		t.Errorf("uniforms changed: %v -> %v", before, w.uniforms)
	}
}

func TestSendAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := &RenderWindow{
		ctx:         ctx,
		sendMessage: make(chan interface{}),
	}
	w.uniforms.DefaultValues()

	done := make(chan struct{})
	go func() {
		w.send()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("send blocked after shutdown")
	}
}
