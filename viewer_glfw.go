package main

import (
	"context"
	"fmt"
	"runtime"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/swagner/mandelzoom/pipeline"
)

// glfwMain is the render-only host: one GLFW window, no config UI.
// The same program object and uniform loader as the GTK host, with
// keyboard controls standing in for the config window.
func glfwMain(ctx context.Context, uniforms pipeline.Uniforms, width, height int) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw.Init failed: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	if width <= 0 || height <= 0 {
		width, height = 1200, 800
		if monitor := glfw.GetPrimaryMonitor(); monitor != nil {
			if mode := monitor.GetVideoMode(); mode != nil {
				width = int(float32(mode.Width) * .6)
				height = int(float32(mode.Height) * .6)
			}
		}
	}

	window, err := glfw.CreateWindow(width, height, "Mandelzoom", nil, nil)
	if err != nil {
		return fmt.Errorf("glfw.CreateWindow failed: %w", err)
	}

	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		return fmt.Errorf("gl.Init failed: %w", err)
	}

	prog, err := newGLProgram(pipeline.GetProgram(0))
	if err != nil {
		return err
	}
	defer prog.delete()

	v := &viewerWindow{
		Window:   window,
		prog:     prog,
		uniforms: uniforms,
	}

	fw, fh := window.GetFramebufferSize()
	v.resize(fw, fh)

	window.SetFramebufferSizeCallback(func(_ *glfw.Window, w, h int) {
		v.resize(w, h)
	})
	window.SetCursorPosCallback(v.cursorPos)
	window.SetMouseButtonCallback(v.mouseButton)
	window.SetScrollCallback(v.scroll)
	window.SetKeyCallback(v.key)

	gl.ClearColor(0, 0, 0, 1)

	for !window.ShouldClose() && ctx.Err() == nil {
		gl.Clear(gl.COLOR_BUFFER_BIT)
		v.prog.draw(&v.uniforms)
		window.SwapBuffers()
		glfw.WaitEvents()
	}

	return ctx.Err()
}

type viewerWindow struct {
	*glfw.Window
	prog *glProgram

	uniforms pipeline.Uniforms
	extent   mgl32.Vec2
	width    int
	height   int

	dragging bool
	dragPos  mgl64.Vec2
}

func (v *viewerWindow) resize(width, height int) {
	if width == 0 || height == 0 {
		return
	}

	v.width, v.height = width, height
	v.uniforms.Scale = pipeline.QuadScale(width, height).Scale
	v.extent = pipeline.PlaneExtent(width, height)
	v.prog.uploadQuad(pipeline.Quad(width, height, v.extent))
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (v *viewerWindow) planeAt(x, y float64) mgl64.Vec2 {
	ex := float64(v.extent[0])
	ey := float64(v.extent[1])
	return mgl64.Vec2{
		2*ex*x/float64(v.width) - ex,
		ey - 2*ey*y/float64(v.height),
	}
}

func (v *viewerWindow) mouseButton(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
	if button != glfw.MouseButtonLeft {
		return
	}

	if action == glfw.Press {
		x, y := v.GetCursorPos()
		v.dragging = true
		v.dragPos = mgl64.Vec2{x, y}
	} else if action == glfw.Release {
		v.dragging = false
	}
}

func (v *viewerWindow) cursorPos(_ *glfw.Window, x, y float64) {
	if !v.dragging {
		return
	}

	from := v.planeAt(v.dragPos[0], v.dragPos[1])
	to := v.planeAt(x, y)
	v.uniforms.Pan(from.Sub(to))
	v.dragPos = mgl64.Vec2{x, y}
}

func (v *viewerWindow) scroll(_ *glfw.Window, _, yoff float64) {
	x, y := v.GetCursorPos()
	anchor := v.planeAt(x, y)

	if yoff > 0 {
		v.uniforms.ZoomAt(.9, anchor)
	} else if yoff < 0 {
		v.uniforms.ZoomAt(1.1, anchor)
	}
}

func (v *viewerWindow) key(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if action != glfw.Press && action != glfw.Repeat {
		return
	}

	switch key {
	case glfw.KeyQ:
		v.uniforms.Rotate(.1, mgl64.Vec2{})
	case glfw.KeyE:
		v.uniforms.Rotate(-.1, mgl64.Vec2{})
	case glfw.KeyUp:
		v.uniforms.Iterations += 16
	case glfw.KeyDown:
		if v.uniforms.Iterations > 16 {
			v.uniforms.Iterations -= 16
		} else {
			v.uniforms.Iterations = 1
		}
	case glfw.KeyR:
		v.uniforms.DefaultValues()
		v.uniforms.Scale = pipeline.QuadScale(v.width, v.height).Scale
	case glfw.KeyEscape:
		v.SetShouldClose(true)
	}
}
