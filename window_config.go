package main

import (
	"context"
	"encoding/gob"
	"fmt"
	"log"
	"math"
	"net"
	"reflect"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"

	"github.com/swagner/mandelzoom/pipeline"
)

// ConfigWindow owns the controls that don't fit a render surface:
// the iteration budget, rotation, reset and image export. It mirrors
// the render window's uniforms over the gob pipe; whichever side
// changed the view last sends the whole struct.
type ConfigWindow struct {
	*gtk.ApplicationWindow
	app  *gtk.Application
	ctx  context.Context
	quit func(error)

	uniforms pipeline.Uniforms

	iterations *gtk.SpinButton
	zoomLabel  *gtk.Label
	posLabel   *gtk.Label

	saveWidth     *gtk.SpinButton
	saveHeight    *gtk.SpinButton
	saveAntialias *gtk.SpinButton
	saveName      *gtk.Entry

	sendMessage chan interface{}
}

func NewConfigWindow(
	app *gtk.Application,
	listener net.Listener,
	uniforms pipeline.Uniforms,
	ctx context.Context,
	quit func(error),
) *ConfigWindow {
	var err error
	w := &ConfigWindow{
		app:         app,
		ctx:         ctx,
		quit:        quit,
		uniforms:    uniforms,
		sendMessage: make(chan interface{}),
	}

	w.ApplicationWindow, err = gtk.ApplicationWindowNew(app)
	if err != nil {
		quit(fmt.Errorf("gtk.ApplicationWindowNew: %w", err))
		return nil
	}

	w.SetDefaultSize(280, 400)

	grid, _ := gtk.GridNew()
	grid.SetRowSpacing(6)
	grid.SetColumnSpacing(6)
	grid.SetMarginTop(12)
	grid.SetMarginBottom(12)
	grid.SetMarginStart(12)
	grid.SetMarginEnd(12)
	row := 0

	iterationsLabel, _ := gtk.LabelNew("Iterations")
	w.iterations, _ = gtk.SpinButtonNewWithRange(1, 1<<20, 16)
	w.iterations.SetValue(float64(w.uniforms.Iterations))
	w.iterations.Connect("value-changed", func() {
		w.uniforms.Iterations = int32(w.iterations.GetValue())
		w.send()
	})
	grid.Attach(iterationsLabel, 0, row, 1, 1)
	grid.Attach(w.iterations, 1, row, 2, 1)
	row++

	w.zoomLabel, _ = gtk.LabelNew("")
	grid.Attach(w.zoomLabel, 0, row, 3, 1)
	row++

	w.posLabel, _ = gtk.LabelNew("")
	grid.Attach(w.posLabel, 0, row, 3, 1)
	row++

	rotateLeft, _ := gtk.ButtonNewWithLabel("Rotate ⟲")
	rotateLeft.Connect("clicked", func() {
		w.uniforms.Rotate(math.Pi/12, mgl64.Vec2{})
		w.send()
	})
	rotateRight, _ := gtk.ButtonNewWithLabel("Rotate ⟳")
	rotateRight.Connect("clicked", func() {
		w.uniforms.Rotate(-math.Pi/12, mgl64.Vec2{})
		w.send()
	})
	grid.Attach(rotateLeft, 0, row, 1, 1)
	grid.Attach(rotateRight, 1, row, 1, 1)
	row++

	reset, _ := gtk.ButtonNewWithLabel("Reset view")
	reset.Connect("clicked", func() {
		scale := w.uniforms.Scale
		w.uniforms.DefaultValues()
		w.uniforms.Scale = scale
		w.send()
	})
	grid.Attach(reset, 0, row, 2, 1)
	row++

	separator, _ := gtk.SeparatorNew(gtk.ORIENTATION_HORIZONTAL)
	grid.Attach(separator, 0, row, 3, 1)
	row++

	widthLabel, _ := gtk.LabelNew("Width")
	w.saveWidth, _ = gtk.SpinButtonNewWithRange(16, 65536, 16)
	w.saveWidth.SetValue(3840)
	grid.Attach(widthLabel, 0, row, 1, 1)
	grid.Attach(w.saveWidth, 1, row, 2, 1)
	row++

	heightLabel, _ := gtk.LabelNew("Height")
	w.saveHeight, _ = gtk.SpinButtonNewWithRange(16, 65536, 16)
	w.saveHeight.SetValue(2160)
	grid.Attach(heightLabel, 0, row, 1, 1)
	grid.Attach(w.saveHeight, 1, row, 2, 1)
	row++

	antialiasLabel, _ := gtk.LabelNew("Antialias")
	antialiasAdjustment, _ := gtk.AdjustmentNew(.3, 0, 2, .1, .5, 0)
	w.saveAntialias, _ = gtk.SpinButtonNew(antialiasAdjustment, .1, 1)
	grid.Attach(antialiasLabel, 0, row, 1, 1)
	grid.Attach(w.saveAntialias, 1, row, 2, 1)
	row++

	nameLabel, _ := gtk.LabelNew("File")
	w.saveName, _ = gtk.EntryNew()
	w.saveName.SetText("mandelbrot.png")
	grid.Attach(nameLabel, 0, row, 1, 1)
	grid.Attach(w.saveName, 1, row, 2, 1)
	row++

	saveButton, _ := gtk.ButtonNewWithLabel("Save image")
	saveButton.Connect("clicked", func() {
		name, err := w.saveName.GetText()
		if err != nil {
			NewErrorDialog(w.ApplicationWindow, err)
			return
		}
		save(w.ctx, w.ApplicationWindow, SaveRequest{
			Name:      name,
			Width:     int(w.saveWidth.GetValue()),
			Height:    int(w.saveHeight.GetValue()),
			Antialias: float32(w.saveAntialias.GetValue()),
		}, pipeline.GetProgram(0), w.uniforms)
	})
	grid.Attach(saveButton, 0, row, 3, 1)

	w.Add(grid)
	w.updateLabels()
	w.ShowAll()

	go w.serve(listener)

	return w
}

func (w *ConfigWindow) serve(listener net.Listener) {
	conn, err := listener.Accept()
	if err != nil {
		w.quit(err)
		return
	}

	go w.handleSend(conn)
	w.handleReceive(conn)
}

func (w *ConfigWindow) send() {
	u := w.uniforms
	select {
	case w.sendMessage <- &u:
	case <-w.ctx.Done():
	}
	w.updateLabels()
}

func (w *ConfigWindow) updateLabels() {
	w.zoomLabel.SetText(fmt.Sprintf("Zoom: %.3g", 1/w.uniforms.Zoom()))
	center := w.uniforms.Center()
	w.posLabel.SetText(fmt.Sprintf("Center: %.6f %+.6fi", center[0], center[1]))
}

func (w *ConfigWindow) handleSend(conn net.Conn) {
	enc := gob.NewEncoder(conn)

	for {
		select {
		case msg := <-w.sendMessage:
			if err := enc.Encode(&msg); err != nil {
				w.quit(err)
				return
			}
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *ConfigWindow) handleReceive(conn net.Conn) {
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
				w.iterations.SetValue(float64(w.uniforms.Iterations))
				w.updateLabels()
			})
		default:
			log.Println("unknown message received", reflect.TypeOf(v))
		}
	}
}
