// Package render turns solution text into a PNG image and a PDF document.
package render

import (
	"fmt"

	"github.com/doeshing/puremath/internal/domain"
	"github.com/doeshing/puremath/internal/ports"
)

// Renderer normalizes and wraps text before producing artifacts. It is safe
// for concurrent use.
type Renderer struct {
	settings  domain.RenderSettings
	normalize func(string) string
	image     *imageRenderer
	document  *documentRenderer
}

// New builds a renderer. normalize may be nil.
func New(settings domain.RenderSettings, normalize func(string) string) (*Renderer, error) {
	settings = (&domain.Config{Render: settings}).RenderOrDefaults()
	img, err := newImageRenderer(settings.ImageWidth, settings.ImageHeight, settings.FontSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRenderFailed, err)
	}
	return &Renderer{
		settings:  settings,
		normalize: normalize,
		image:     img,
		document:  &documentRenderer{maxPages: settings.MaxDocumentPages},
	}, nil
}

// RenderImage draws text on a single fixed-size canvas.
func (r *Renderer) RenderImage(text string) (art domain.Artifact, err error) {
	defer recoverRender(&err)
	return r.image.render(r.layout(text))
}

// RenderDocument lays text out as a paginated A4 PDF.
func (r *Renderer) RenderDocument(text string) (art domain.Artifact, err error) {
	defer recoverRender(&err)
	return r.document.render(r.layout(text))
}

func (r *Renderer) layout(text string) []string {
	if r.normalize != nil {
		text = r.normalize(text)
	}
	return Wrap(text, r.settings.WrapColumn)
}

func recoverRender(err *error) {
	if rec := recover(); rec != nil {
		*err = fmt.Errorf("%w: %v", domain.ErrRenderFailed, rec)
	}
}

var _ ports.Renderer = (*Renderer)(nil)
