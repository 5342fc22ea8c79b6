package viz

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"
)

// ErrNoFrames is returned when saving a recording that captured nothing.
var ErrNoFrames = errors.New("viz: no frames recorded")

const (
	cellW, cellH = 8, 16
	// gif delay per frame, in 1/100 s
	frameDelay = 3
	// recordings stop growing past this many frames
	maxFrames = 1800
)

var gifPalette = color.Palette{color.Black, color.White}

// Recorder rasterizes canvas snapshots into an animated GIF.
type Recorder struct {
	frames []*image.Paletted
}

func (r *Recorder) Len() int { return len(r.frames) }

// Capture appends the current canvas contents as a frame. It reports false
// once the recording is full or the canvas changed size.
func (r *Recorder) Capture(c *Canvas) bool {
	if len(r.frames) >= maxFrames {
		return false
	}
	bounds := image.Rect(0, 0, c.Width*cellW, c.Height*cellH)
	if len(r.frames) > 0 && r.frames[0].Bounds() != bounds {
		// all frames share the first frame's size
		return false
	}
	img := image.NewPaletted(bounds, gifPalette)
	dotW, dotH := cellW/2, cellH/4
	w, h := c.Dots()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !c.IsSet(x, y) {
				continue
			}
			for py := 0; py < dotH; py++ {
				for px := 0; px < dotW; px++ {
					img.SetColorIndex(x*dotW+px, y*dotH+py, 1)
				}
			}
		}
	}
	r.frames = append(r.frames, img)
	return true
}

// Save encodes the recording to path and empties the recorder.
func (r *Recorder) Save(path string) error {
	if len(r.frames) == 0 {
		return ErrNoFrames
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, frameDelay)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create recording: %w", err)
	}
	defer f.Close()
	if err := gif.EncodeAll(f, &anim); err != nil {
		return fmt.Errorf("encode recording: %w", err)
	}
	r.frames = nil
	return nil
}
