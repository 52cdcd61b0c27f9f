package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"

	"github.com/swagner/mandelzoom/pipeline"
)

type SaveRequest struct {
	Name          string
	Width, Height int
	Antialias     float32
}

// save renders the current view at the requested size on the CPU and
// shows a preview before writing the file. The render runs off the
// GTK main loop; all failures funnel into the save context's cause.
func save(
	ctx context.Context,
	window *gtk.ApplicationWindow,
	req SaveRequest,
	program pipeline.Program,
	uniforms pipeline.Uniforms,
) {
	ctx, cancel := context.WithCancelCause(ctx)
	AttachErrorDialog(window, ctx)

	dialog, err := NewProgressDialog(
		ctx, window, "Save Image",
		fmt.Sprintf("Rendering %v", req.Name),
		func() { cancel(context.Canceled) },
	)
	if err != nil {
		cancel(err)
		return
	}

	app, err := window.GetApplication()
	if err != nil {
		cancel(err)
		return
	}

	go func() {
		defer CatchPanicToContext(cancel)

		img, err := renderRequest(ctx, dialog, req, program, uniforms)
		if err != nil {
			cancel(err)
			return
		}

		glib.IdleAdd(func() {
			dialog.Destroy()

			_, err := NewImageDialog(app, img,
				func() {
					go func() {
						defer CatchPanicToContext(cancel)
						cancel(encodeImage(req.Name, img))
					}()
				},
				func() { cancel(context.Canceled) },
			)
			if err != nil {
				cancel(err)
			}
		})
	}()
}

// renderRequest produces the full-size image. Without antialiasing
// the rasterizer runs the exact two-stage pipeline; with it, the
// plane image is supersampled around each pixel and buffered.
func renderRequest(
	ctx context.Context,
	dialog *ProgressDialog,
	req SaveRequest,
	program pipeline.Program,
	uniforms pipeline.Uniforms,
) (image.Image, error) {
	if req.Antialias <= 0 {
		dst := image.NewNRGBA(image.Rect(0, 0, req.Width, req.Height))

		var rows atomic.Int64
		dialog.AddProgressSupplier(func() float64 {
			return float64(rows.Load()) / float64(req.Height)
		})

		err := pipeline.RenderFrame(
			ctx, dst,
			pipeline.Quad(req.Width, req.Height, pipeline.PlaneExtent(req.Width, req.Height)),
			pipeline.QuadScale(req.Width, req.Height),
			uniforms.Affine(),
			uniforms.Budget(),
			func() { rows.Add(1) },
		)
		if err != nil {
			return nil, err
		}
		return dst, nil
	}

	planeImage, err := program.GetImage(uniforms, req.Width, req.Height)
	if err != nil {
		return nil, err
	}
	planeImage = AntiAlias9x(planeImage, req.Antialias)

	img := ToImage(planeImage)
	dialog.AddProgressSupplier(WrapWithProgress(&img))

	buffered := BufferImage(img)
	if err := buffered.Buffer(ctx); err != nil {
		return nil, err
	}
	return buffered, nil
}

// encodeImage writes img to name, picking the format from the file
// extension. PNG is the fallback.
func encodeImage(name string, img image.Image) error {
	file, err := os.Create(name)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".webp":
		err = nativewebp.Encode(file, img, nil)
	case ".tga":
		err = tga.Encode(file, img)
	default:
		err = png.Encode(file, img)
	}

	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(name)
		return fmt.Errorf("encoding %v: %w", name, err)
	}
	return nil
}
