package main

import (
	"context"
	"image"
	"image/color"
	"log"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/swagner/mandelzoom/pipeline"
)

func WrapWithProgress(img *image.Image) func() float64 {
	p := &ProgressImage{
		Image: *img,
	}

	*img = p
	return p.Progress
}

// ProgressImage counts At calls so a consumer that scans every pixel
// once, like an encoder, reports its progress for free. The counter is
// atomic; BufferedImage reads from several goroutines.
type ProgressImage struct {
	image.Image
	count atomic.Int64
}

func (i *ProgressImage) At(x, y int) color.Color {
	i.count.Add(1)
	return i.Image.At(x, y)
}

func (i *ProgressImage) Progress() float64 {
	end := i.Bounds().Dx() * i.Bounds().Dy()
	return float64(i.count.Load()) / float64(end)
}

func (i *ProgressImage) Opaque() bool {
	return true
}

// AntiAlias9x samples 9 positions for each sampled position,
// returning the average colour.
//
// antialias is the number of pixels apart the sampled locations are.
func AntiAlias9x(img pipeline.Image, antialias float32) pipeline.Image {
	if antialias == 0 {
		log.Println("image uselessly antialiased with distance of 0")
	}

	return &antialias9xImage{
		Image:  img,
		offset: antialias,
	}
}

type antialias9xImage struct {
	pipeline.Image
	offset float32
}

func (i *antialias9xImage) GetPixel(pos mgl32.Vec2) mgl32.Vec4 {
	avg := mgl32.Vec4{}
	for _, dx := range [3]float32{-i.offset, 0, i.offset} {
		for _, dy := range [3]float32{-i.offset, 0, i.offset} {
			avg = avg.Add(i.Image.GetPixel(mgl32.Vec2{pos[0] + dx, pos[1] + dy}))
		}
	}
	return avg.Mul(1 / float32(9))
}

func BufferImage(img image.Image) *BufferedImage {
	return &BufferedImage{
		Image:  img,
		height: img.Bounds().Dy(),
	}
}

// BufferedImage renders its source once, in parallel column chunks,
// so the encoder afterwards reads from memory.
type BufferedImage struct {
	image.Image
	height int
	buff   []color.Color
}

func (b *BufferedImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Image.Bounds().Dx(), b.Image.Bounds().Dy())
}

func (b *BufferedImage) At(x, y int) color.Color {
	return b.buff[x*b.height+y]
}

func (b *BufferedImage) Buffer(ctx context.Context) error {
	b.buff = make([]color.Color, b.Image.Bounds().Dx()*b.Image.Bounds().Dy())

	min, max := b.Image.Bounds().Min, b.Image.Bounds().Max
	chunkSize := 50
	var wg sync.WaitGroup

	for chunkMin := min.X; chunkMin < max.X; chunkMin += chunkSize {
		chunkMax := chunkMin + chunkSize
		if chunkMax > max.X {
			chunkMax = max.X
		}

		wg.Add(1)
		go func(chunkMin, chunkMax int) {
			defer wg.Done()
			i := (chunkMin - min.X) * b.Image.Bounds().Dy()
			for x := chunkMin; x < chunkMax; x++ {
				if ctx.Err() != nil {
					return
				}

				for y := min.Y; y < max.Y; y++ {
					b.buff[i] = b.Image.At(x, y)
					i++
				}
			}
		}(chunkMin, chunkMax)
	}

	wg.Wait()

	return ctx.Err()
}

func (b *BufferedImage) Opaque() bool {
	return true
}

// ToImage adapts a plane-space image to image.Image. The source is
// sampled in pixel units centered on zero; pixel y grows down while
// plane y grows up, hence the flip.
func ToImage(img pipeline.Image) image.Image {
	return &imageImage{
		Image: img,
		halfX: float32(img.Bounds().Dx()) / 2,
		halfY: float32(img.Bounds().Dy()) / 2,
	}
}

type imageImage struct {
	pipeline.Image
	halfX float32
	halfY float32
}

func (i *imageImage) At(x, y int) color.Color {
	c := i.GetPixel(mgl32.Vec2{
		float32(x) + .5 - i.halfX,
		i.halfY - float32(y) - .5,
	})

	return pipeline.ToNRGBA(c)
}

func (i *imageImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, i.Image.Bounds().Dx(), i.Image.Bounds().Dy())
}

func (i *imageImage) ColorModel() color.Model {
	return color.NRGBAModel
}

func (i *imageImage) Opaque() bool {
	return true
}
