package main

import (
	"context"
	"encoding/gob"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"

	"github.com/swagner/mandelzoom/pipeline"
)

const debug = true

func init() {
	gob.Register(&pipeline.Uniforms{})
}

func main() {
	viewer := flag.Bool("viewer", false, "render-only GLFW window, no config UI")
	iterations := flag.Int("iterations", 0, "initial iteration budget (0 uses the default)")
	size := flag.String("size", "", "initial window size as WIDTHxHEIGHT (default fits the primary monitor)")
	flag.Parse()

	var width, height int
	if *size != "" {
		var err error
		width, height, err = parseSize(*size)
		if err != nil {
			log.Fatal(err)
		}
	}

	var uniforms pipeline.Uniforms
	uniforms.DefaultValues()
	if *iterations > 0 {
		uniforms.Iterations = int32(*iterations)
	}

	mainContext, mainQuit := context.WithCancelCause(context.Background())

	go func() {
		if *viewer {
			mainQuit(glfwMain(mainContext, uniforms, width, height))
		} else {
			mainQuit(gtkMain(mainContext, uniforms, width, height))
		}
	}()

	<-mainContext.Done()
	if err := context.Cause(mainContext); err != nil && !errors.Is(err, context.Canceled) {
		log.Println(err)
	}
}

// parseSize parses a WIDTHxHEIGHT flag value.
func parseSize(s string) (width, height int, err error) {
	ws, hs, ok := strings.Cut(s, "x")
	if ok {
		width, err = strconv.Atoi(ws)
		if err == nil {
			height, err = strconv.Atoi(hs)
		}
	}
	if !ok || err != nil || width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q, want WIDTHxHEIGHT", s)
	}
	return width, height, nil
}

func gtkMain(ctx context.Context, uniforms pipeline.Uniforms, width, height int) error {
	runtime.LockOSThread()

	gtk.Init(&os.Args)
	app, err := gtk.ApplicationNew("com.github.swagner.mandelzoom", glib.APPLICATION_FLAGS_NONE)
	if err != nil {
		return fmt.Errorf("gtk.ApplicationNew failed: %w", err)
	}

	appContext, appQuit := context.WithCancelCause(ctx)
	app.Connect("activate", func() {
		client, listener := NewPipeListener(appContext)

		renderWindow := NewRenderWindow(app, client, uniforms, width, height, appContext, appQuit)
		renderWindow.Connect("destroy", func() {
			appQuit(nil)
		})
		renderWindow.SetTitle("Mandelzoom")

		configWindow := NewConfigWindow(app, listener, uniforms, appContext, appQuit)
		configWindow.Connect("destroy", func() {
			appQuit(nil)
		})
		configWindow.SetTitle("Mandelzoom Config")
	})

	go func() {
		<-appContext.Done()
		glib.IdleAdd(app.Quit)
	}()
	app.Run(nil)
	return context.Cause(appContext)
}
