package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"runtime/debug"
	"time"

	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	"golang.org/x/image/draw"
)

func CatchPanicToContext(ctxCancel context.CancelCauseFunc) {
	if v := recover(); v != nil {
		err, ok := v.(error)
		if !ok {
			err = fmt.Errorf("panic: %v", v)
		}
		err = fmt.Errorf("%w\n%v", err, string(debug.Stack()))
		if ctxCancel != nil {
			ctxCancel(err)
		}
	}
}

func AttachErrorDialog(parent *gtk.ApplicationWindow, ctx context.Context) {
	go func() {
		<-ctx.Done()
		err := context.Cause(ctx)
		if !errors.Is(err, context.Canceled) {
			log.Println(err)
			glib.IdleAdd(func() {
				NewErrorDialog(parent, err)
			})
		}
	}()
}

func NewErrorDialog(
	parent *gtk.ApplicationWindow,
	err error,
) {
	dialog := gtk.MessageDialogNew(
		parent,
		gtk.DIALOG_DESTROY_WITH_PARENT,
		gtk.MESSAGE_ERROR,
		gtk.BUTTONS_CLOSE,
		"Error: %s",
		err.Error(),
	)

	dialog.Connect("response", dialog.Destroy)
	dialog.SetKeepAbove(true)
	dialog.Run()
}

func NewProgressDialog(
	parentCtx context.Context,
	parentWindow gtk.IWindow,
	title string,
	description string,
	onCancel func(),
) (*ProgressDialog, error) {
	dialog := &ProgressDialog{}
	dialog.Dialog, _ = gtk.DialogNewWithButtons(
		title,
		parentWindow,
		gtk.DIALOG_DESTROY_WITH_PARENT,
		[]interface{}{"CANCEL", gtk.RESPONSE_CANCEL},
	)
	dialog.SetKeepAbove(true)
	dialog.Connect("response", func(dialog *gtk.Dialog, response gtk.ResponseType) {
		if response == gtk.RESPONSE_CANCEL {
			onCancel()
		}
	})

	ca, _ := dialog.GetContentArea()
	dialog.label, _ = gtk.LabelNew(description)
	ca.Add(dialog.label)

	dialog.progressBar, _ = gtk.ProgressBarNew()
	dialog.progressBar.SetProperty("show-text", true)
	dialog.progressBar.SetSizeRequest(500, 80)
	ca.Add(dialog.progressBar)

	dialog.ShowAll()

	go dialog.periodicUpdate(parentCtx)
	return dialog, nil
}

type ProgressDialog struct {
	*gtk.Dialog
	progressBar *gtk.ProgressBar
	label       *gtk.Label

	progressFuncs []func() float64
}

// AddProgressSupplier adds a supplier for progress information to the
// ProgressDialog. If more than one supplier is added, their values
// are averaged.
func (dialog *ProgressDialog) AddProgressSupplier(supplier func() float64) {
	glib.IdleAdd(func() {
		dialog.progressFuncs = append(dialog.progressFuncs, supplier)
	})
}

func (dialog *ProgressDialog) periodicUpdate(ctx context.Context) {
	ticker := time.NewTicker(time.Second / 10)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			glib.IdleAdd(func() {
				if len(dialog.progressFuncs) == 0 {
					dialog.progressBar.Pulse()
					return
				}
				progress := float64(0)
				for _, progressFunc := range dialog.progressFuncs {
					progress += progressFunc()
				}
				progress = progress / float64(len(dialog.progressFuncs))
				dialog.progressBar.SetFraction(progress)
			})
		case <-ctx.Done():
			glib.IdleAdd(func() {
				dialog.Destroy()
			})
			return
		}
	}
}

const (
	previewWidth  = 800
	previewHeight = 600
)

// NewImageDialog shows a scaled-down preview of a rendered image with
// Save and Discard buttons.
func NewImageDialog(
	app *gtk.Application,
	img image.Image,
	responseSave func(),
	responseDiscard func(),
) (*ImagePreview, error) {
	w := &ImagePreview{}
	var err error

	w.ApplicationWindow, err = gtk.ApplicationWindowNew(app)
	if err != nil {
		return nil, err
	}

	pixbuf, err := previewPixbuf(img)
	if err != nil {
		return nil, err
	}

	previewImage, err := gtk.ImageNewFromPixbuf(pixbuf)
	if err != nil {
		return nil, err
	}

	previewImage.SetHExpand(true)
	previewImage.SetVExpand(true)

	discardButton, _ := gtk.ButtonNewWithLabel("Discard")
	discardButton.Connect("clicked", func(button *gtk.Button) {
		if responseDiscard != nil {
			responseDiscard()
		}
		w.Destroy()
	})

	saveButton, _ := gtk.ButtonNewWithLabel("Save")
	saveButton.Connect("clicked", func(button *gtk.Button) {
		if responseSave != nil {
			responseSave()
		}
		w.Destroy()
	})

	grid, _ := gtk.GridNew()
	grid.Attach(previewImage, 0, 0, 5, 1)
	grid.Attach(saveButton, 0, 1, 1, 1)
	grid.Attach(discardButton, 4, 1, 1, 1)

	w.Add(grid)
	w.ShowAll()

	return w, nil
}

type ImagePreview struct {
	*gtk.ApplicationWindow
}

// previewPixbuf downscales img to fit the preview window and wraps it
// in a pixbuf, going through an in-memory PNG because pixbufs load
// from encoded bytes.
func previewPixbuf(img image.Image) (*gdk.Pixbuf, error) {
	bounds := img.Bounds()

	scale := float64(previewWidth) / float64(bounds.Dx())
	if s := float64(previewHeight) / float64(bounds.Dy()); s < scale {
		scale = s
	}
	if scale > 1 {
		scale = 1
	}

	dst := image.NewNRGBA(image.Rect(
		0, 0,
		int(float64(bounds.Dx())*scale),
		int(float64(bounds.Dy())*scale),
	))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}

	return gdk.PixbufNewFromBytesOnly(buf.Bytes())
}
