package main

import (
	"context"
	"encoding/gob"
	"fmt"
	"log"
	"net"
	"reflect"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"

	"github.com/swagner/mandelzoom/pipeline"
)

func NewRenderWindow(
	app *gtk.Application,
	conn net.Conn,
	uniforms pipeline.Uniforms,
	width, height int,
	ctx context.Context,
	quit func(error),
) *RenderWindow {
	var err error
	w := &RenderWindow{
		ctx:         ctx,
		quit:        quit,
		uniforms:    uniforms,
		sendMessage: make(chan interface{}),
	}

	go w.handleSend(conn)

	w.ApplicationWindow, err = gtk.ApplicationWindowNew(app)
	if err != nil {
		quit(fmt.Errorf("gtk.ApplicationWindowNew: %w", err))
		return nil
	}

	if width <= 0 || height <= 0 {
		width, height = getWindowSize()
	}
	w.SetDefaultSize(width, height)

	w.gla, err = gtk.GLAreaNew()
	if err != nil {
		quit(fmt.Errorf("gtk.GLAreaNew: %w", err))
		return nil
	}

	w.gla.SetRequiredVersion(4, 6)
	w.gla.Connect("realize", w.glaRealize)
	w.gla.Connect("render", w.glaRender)
	w.gla.Connect("unrealize", w.glaUnrealize)

	w.gla.SetEvents(
		int(gdk.BUTTON_PRESS_MASK) |
			int(gdk.BUTTON_RELEASE_MASK) |
			int(gdk.POINTER_MOTION_MASK) |
			int(gdk.SCROLL_MASK),
	)
	w.gla.Connect("resize", w.resize)
	w.gla.Connect("scroll-event", w.scroll)
	w.gla.Connect("motion-notify-event", w.motion)
	w.gla.Connect("button-press-event", w.button)
	w.gla.Connect("button-release-event", w.button)

	w.Add(w.gla)
	w.ShowAll()

	go w.handleReceive(conn)

	return w
}

func getWindowSize() (width, height int) {
	width = 1200
	height = 800

	display, err := gdk.DisplayGetDefault()
	if err != nil {
		return
	}

	monitor, err := display.GetPrimaryMonitor()
	if err != nil {
		return
	}

	width = int(float32(monitor.GetGeometry().GetWidth()) * .6)
	height = int(float32(monitor.GetGeometry().GetHeight()) * .6)
	return
}

type RenderWindow struct {
	*gtk.ApplicationWindow
	gla    *gtk.GLArea
	width  int
	height int
	extent mgl32.Vec2

	dragging bool
	dragPos  mgl64.Vec2

	ctx  context.Context
	quit func(error)

	prog        *glProgram
	uniforms    pipeline.Uniforms
	sendMessage chan interface{}
}

func glDebugMessage(
	source,
	gltype,
	id,
	severity uint32,
	length int32,
	message string,
	user unsafe.Pointer,
) {
	severityStr := "unknown"
	switch severity {
	case gl.DEBUG_SEVERITY_HIGH:
		severityStr = "high"
	case gl.DEBUG_SEVERITY_MEDIUM:
		severityStr = "medium"
	case gl.DEBUG_SEVERITY_LOW:
		severityStr = "low"
	case gl.DEBUG_SEVERITY_NOTIFICATION:
		severityStr = "notification"
	}

	log.Printf("gl(%v): %v\n", severityStr, message)
}

func (w *RenderWindow) glaRealize(gla *gtk.GLArea) {
	gla.MakeCurrent()

	err := gl.Init()
	if err != nil {
		w.quit(fmt.Errorf("gl.Init: %w", err))
		return
	}
	fmt.Println("OpenGL version", gl.GoStr(gl.GetString(gl.VERSION)))

	gl.DebugMessageCallback(glDebugMessage, nil)
	if debug {
		gl.Enable(gl.DEBUG_OUTPUT)
	}

	w.prog, err = newGLProgram(pipeline.GetProgram(0))
	if err != nil {
		w.quit(err)
		return
	}

	gl.ClearColor(0, 0, 0, 1)
	w.fitView()
	w.send()
}

func (w *RenderWindow) glaRender(gla *gtk.GLArea) {
	w.gla.AttachBuffers()
	gl.Clear(gl.COLOR_BUFFER_BIT)
	if w.prog != nil {
		w.prog.draw(&w.uniforms)
	}
}

func (w *RenderWindow) glaUnrealize(gla *gtk.GLArea) {
	if w.prog != nil {
		w.prog.delete()
		w.prog = nil
	}
}

func (w *RenderWindow) resize(gla *gtk.GLArea, width, height int) {
	w.width, w.height = width, height
	w.fitView()
	gl.Viewport(0, 0, int32(w.width), int32(w.height))
}

// fitView derives the size-dependent pipeline inputs: the scale
// uniform fits the quad to the window, the plane extent keeps the
// sampling grid square.
func (w *RenderWindow) fitView() {
	if w.width == 0 || w.height == 0 || w.prog == nil {
		return
	}

	w.uniforms.Scale = pipeline.QuadScale(w.width, w.height).Scale
	w.extent = pipeline.PlaneExtent(w.width, w.height)
	w.prog.uploadQuad(pipeline.Quad(w.width, w.height, w.extent))
}

// planeAt maps a window position to its plane coordinate.
func (w *RenderWindow) planeAt(x, y float64) mgl64.Vec2 {
	ex := float64(w.extent[0])
	ey := float64(w.extent[1])
	return mgl64.Vec2{
		2*ex*x/float64(w.width) - ex,
		ey - 2*ey*y/float64(w.height),
	}
}

func (w *RenderWindow) button(gla *gtk.GLArea, event *gdk.Event) {
	button := gdk.EventButtonNewFromEvent(event)

	if button.Type() == gdk.EVENT_BUTTON_PRESS {
		w.dragging = true
		w.dragPos = mgl64.Vec2{button.X(), button.Y()}
	} else if button.Type() == gdk.EVENT_BUTTON_RELEASE {
		w.dragging = false
		w.send()
	}
}

func (w *RenderWindow) motion(gla *gtk.GLArea, event *gdk.Event) {
	if !w.dragging {
		return
	}

	motion := gdk.EventMotionNewFromEvent(event)
	x, y := motion.MotionVal()

	// Keep the fractal point under the cursor while it moves.
	from := w.planeAt(w.dragPos[0], w.dragPos[1])
	to := w.planeAt(x, y)
	w.uniforms.Pan(from.Sub(to))

	w.dragPos = mgl64.Vec2{x, y}
	gla.QueueRender()
}

func (w *RenderWindow) scroll(gla *gtk.GLArea, event *gdk.Event) {
	scroll := gdk.EventScrollNewFromEvent(event)

	anchor := w.planeAt(scroll.X(), scroll.Y())
	if !w.applyScroll(scroll.Direction(), anchor) {
		return
	}

	gla.QueueRender()
	w.send()
}

// applyScroll maps one scroll step to a view update about the cursor
// anchor. Vertical steps zoom, horizontal steps rotate.
func (w *RenderWindow) applyScroll(direction gdk.ScrollDirection, anchor mgl64.Vec2) bool {
	switch direction {
	case gdk.SCROLL_UP:
		w.uniforms.ZoomAt(.9, anchor)
	case gdk.SCROLL_DOWN:
		w.uniforms.ZoomAt(1.1, anchor)
	case gdk.SCROLL_LEFT:
		w.uniforms.Rotate(.1, anchor)
	case gdk.SCROLL_RIGHT:
		w.uniforms.Rotate(-.1, anchor)
	default:
		return false
	}
	return true
}

// send queues the current uniforms for the config window without
// blocking past shutdown.
func (w *RenderWindow) send() {
	u := w.uniforms
	select {
	case w.sendMessage <- &u:
	case <-w.ctx.Done():
	}
}

func (w *RenderWindow) handleSend(conn net.Conn) {
	enc := gob.NewEncoder(conn)
	defer conn.Close()

	for {
		select {
		case msg := <-w.sendMessage:
			err := enc.Encode(&msg)
			if err != nil {
				w.quit(err)
				return
			}
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *RenderWindow) handleReceive(conn net.Conn) {
	dec := gob.NewDecoder(conn)

	for {
		var v interface{}
		err := dec.Decode(&v)
		if err != nil {
			if w.ctx.Err() == nil {
				w.quit(err)
			}
			conn.Close()
			return
		}

		switch msg := v.(type) {
		case *pipeline.Uniforms:
			glib.IdleAdd(func() {
				w.uniforms = *msg
				w.gla.MakeCurrent()
				w.fitView()
				w.gla.QueueRender()
			})
		default:
			log.Println("unknown message received", reflect.TypeOf(v))
		}
	}
}
