package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/doeshing/puremath/internal/domain"
)

var (
	backgroundColor = color.RGBA{R: 0xf8, G: 0xf9, B: 0xfa, A: 0xff}
	borderColor     = color.RGBA{R: 0xde, G: 0xe2, B: 0xe6, A: 0xff}
	panelColor      = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	textColor       = color.RGBA{R: 0x2e, G: 0x34, B: 0x40, A: 0xff}
)

const (
	canvasMargin = 40
	panelPadding = 30
	borderWidth  = 2
)

// imageRenderer draws wrapped lines onto a fixed-size PNG canvas. Lines that
// do not fit the panel are clipped.
type imageRenderer struct {
	width  int
	height int
	size   float64
	font   *opentype.Font
}

func newImageRenderer(width, height int, size float64) (*imageRenderer, error) {
	parsed, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &imageRenderer{width: width, height: height, size: size, font: parsed}, nil
}

func (r *imageRenderer) render(lines []string) (domain.Artifact, error) {
	// faces keep per-glyph scratch buffers, so each render gets its own
	face, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    r.size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("%w: load font face: %v", domain.ErrRenderFailed, err)
	}
	defer face.Close()

	canvas := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)

	outer := image.Rect(canvasMargin, canvasMargin, r.width-canvasMargin, r.height-canvasMargin)
	inner := outer.Inset(borderWidth)
	draw.Draw(canvas, outer, image.NewUniform(borderColor), image.Point{}, draw.Src)
	draw.Draw(canvas, inner, image.NewUniform(panelColor), image.Point{}, draw.Src)

	text := inner.Inset(panelPadding)
	clip, ok := canvas.SubImage(text).(*image.RGBA)
	if !ok {
		return domain.Artifact{}, fmt.Errorf("%w: unexpected canvas type", domain.ErrRenderFailed)
	}

	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()
	drawer := &font.Drawer{
		Dst:  clip,
		Src:  image.NewUniform(textColor),
		Face: face,
	}
	baseline := text.Min.Y + metrics.Ascent.Ceil()
	for _, line := range lines {
		if baseline-metrics.Ascent.Ceil() >= text.Max.Y {
			break
		}
		drawer.Dot = fixed.P(text.Min.X, baseline)
		drawer.DrawString(line)
		baseline += lineHeight
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return domain.Artifact{}, fmt.Errorf("%w: encode png: %v", domain.ErrRenderFailed, err)
	}
	return domain.Artifact{Name: "solution.png", MIMEType: "image/png", Data: buf.Bytes()}, nil
}
