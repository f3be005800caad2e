package render

import (
	"fmt"
	"log/slog"

	"github.com/tbxark/viewagent/types"
)

// RenderedView is the opaque handle a host renderer returns.
type RenderedView any

type RenderFunc func(desc types.ViewDescriptor) (RenderedView, error)

// Registry maps view types to host renderers.
type Registry map[types.ViewTypeID]RenderFunc

type Dispatcher struct {
	renderers Registry
}

func NewDispatcher(renderers Registry) *Dispatcher {
	copied := make(Registry, len(renderers))
	for id, fn := range renderers {
		copied[id] = fn
	}
	return &Dispatcher{renderers: copied}
}

// Render looks up the renderer for desc.Type and runs it. Renderer errors and
// panics come back as errors wrapping ErrRenderFailed.
func (d *Dispatcher) Render(desc types.ViewDescriptor) (view RenderedView, err error) {
	fn, ok := d.renderers[desc.Type]
	if !ok || fn == nil {
		return nil, fmt.Errorf("%w: %s", types.ErrViewNotImplemented, desc.Type)
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Renderer panicked", "type", desc.Type, "panic", r)
			view = nil
			err = fmt.Errorf("%w: %s: recover from panic: %v", types.ErrRenderFailed, desc.Type, r)
		}
	}()
	view, err = fn(desc.Clone())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", types.ErrRenderFailed, desc.Type, err)
	}
	return view, nil
}

// Supports reports whether a renderer is registered for id.
func (d *Dispatcher) Supports(id types.ViewTypeID) bool {
	fn, ok := d.renderers[id]
	return ok && fn != nil
}

// Notice is the text shown in place of a view that could not be rendered.
func Notice(id types.ViewTypeID) string {
	return fmt.Sprintf("Component %s could not be displayed", id)
}
