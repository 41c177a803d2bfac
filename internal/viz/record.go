package viz

import (
	"image"
	"image/color"
	"image/gif"
	"os"
)

const (
	DefaultRecordingPath = "softsim.gif"
	maxRecordedFrames    = 1800
)

var recordPalette = color.Palette{color.Black, color.RGBA{0x00, 0xff, 0x88, 0xff}}

// Recorder rasterizes canvas frames for a GIF.
type Recorder struct {
	frames []*image.Paletted
}

func NewRecorder() *Recorder {
	return &Recorder{frames: make([]*image.Paletted, 0)}
}

func (r *Recorder) Len() int { return len(r.frames) }

// Capture draws each lit braille dot as a block of pixels. Frames beyond the
// cap are dropped.
func (r *Recorder) Capture(c *Canvas) {
	if len(r.frames) >= maxRecordedFrames {
		return
	}
	const charW, charH = 8, 16
	dotW, dotH := charW/2, charH/4
	img := image.NewPaletted(image.Rect(0, 0, c.Width*charW, c.Height*charH), recordPalette)
	for y := 0; y < c.Height*4; y++ {
		for x := 0; x < c.Width*2; x++ {
			if !c.Get(x, y) {
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
}

// Save writes the captured frames as a looping GIF and returns the path used.
// Nothing is written when no frames were captured.
func (r *Recorder) Save(path string) (string, error) {
	if len(r.frames) == 0 {
		return "", nil
	}
	if path == "" {
		path = DefaultRecordingPath
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 2)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := gif.EncodeAll(f, &anim); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}
