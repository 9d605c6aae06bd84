package display

import (
	"errors"

	"github.com/travigo/departureboard/pkg/ctdf"
)

type Renderer interface {
	Render(frame ctdf.RenderFrame) error
}

// MultiRenderer draws every frame on all of its renderers, a failing one does not stop the others
type MultiRenderer []Renderer

func (m MultiRenderer) Render(frame ctdf.RenderFrame) error {
	var errs []error

	for _, renderer := range m {
		if err := renderer.Render(frame); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

type NopRenderer struct{}

func (NopRenderer) Render(ctdf.RenderFrame) error { return nil }
