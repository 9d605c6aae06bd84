package display

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/travigo/departureboard/pkg/ctdf"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	pngMarginLeft = 2
	// distance from the bottom of a line slot to the text baseline
	pngBaselineInset = 3
)

// PNGRenderer rasterises frames the way the LED panel shows them and writes every Every-th
// frame to Path. Files are replaced atomically so a viewer never reads half an image.
type PNGRenderer struct {
	Path       string
	Width      int
	Height     int
	LineHeight int
	Every      int

	frames int
}

func NewPNGRenderer(path string, width int, height int, lineHeight int, every int) *PNGRenderer {
	if every <= 0 {
		every = 1
	}

	return &PNGRenderer{
		Path:       path,
		Width:      width,
		Height:     height,
		LineHeight: lineHeight,
		Every:      every,
	}
}

func (p *PNGRenderer) Render(frame ctdf.RenderFrame) error {
	p.frames++
	if (p.frames-1)%p.Every != 0 {
		return nil
	}

	return p.write(p.Rasterise(frame))
}

func (p *PNGRenderer) Rasterise(frame ctdf.RenderFrame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	for i, line := range frame.Lines {
		baseline := frame.VerticalOffset + (i+1)*p.LineHeight - pngBaselineInset
		if baseline < 0 || baseline-p.LineHeight > p.Height {
			continue
		}

		colour := line.Colour.Scale(frame.Brightness)
		drawer := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(color.RGBA{R: colour.R, G: colour.G, B: colour.B, A: 255}),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(pngMarginLeft, baseline),
		}
		drawer.DrawString(line.Text)
	}

	return img
}

func (p *PNGRenderer) write(img image.Image) error {
	dir := filepath.Dir(p.Path)

	file, err := os.CreateTemp(dir, ".frame-*.png")
	if err != nil {
		return fmt.Errorf("create frame file: %w", err)
	}
	tempPath := file.Name()

	if err := png.Encode(file, img); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("encode frame: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("close frame file: %w", err)
	}

	if err := os.Rename(tempPath, p.Path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("replace %s: %w", p.Path, err)
	}

	log.Debug().Str("path", p.Path).Int("frame", p.frames).Msg("Wrote frame image")

	return nil
}
