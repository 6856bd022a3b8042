package browser

import (
	"context"

	"pkt.systems/sayam/schema"
)

// SurfaceInfo is the observable state of one rendering surface.
type SurfaceInfo struct {
	URL          string
	Title        string
	Loading      bool
	CanGoBack    bool
	CanGoForward bool
}

// Surface is one rendering surface, typically a Chrome page. The
// controller never touches the rendering engine directly; everything
// goes through this interface so tab logic is testable without Chrome.
type Surface interface {
	Navigate(ctx context.Context, rawURL string) error
	Back(ctx context.Context) error
	Forward(ctx context.Context) error
	Reload(ctx context.Context) error
	// SetBounds positions the surface. A zero rect hides it without
	// detaching the page.
	SetBounds(ctx context.Context, rect schema.Rect) error
	// SetBlockedPatterns installs request blocking. An empty slice
	// clears it.
	SetBlockedPatterns(ctx context.Context, patterns []string) error
	// Evaluate runs a script in the page and decodes the result.
	Evaluate(ctx context.Context, expr string, out any) error
	Info(ctx context.Context) (SurfaceInfo, error)
	Close(ctx context.Context) error
}

// SurfaceFactory creates surfaces. onUpdate is invoked by the surface
// owner whenever navigation or title state changes; it may be nil.
type SurfaceFactory interface {
	NewSurface(ctx context.Context, id schema.TabID, startURL string, onUpdate func(SurfaceInfo)) (Surface, error)
}

// TabEventSink receives tab lifecycle events from the controller.
// Callbacks run outside the controller lock.
type TabEventSink interface {
	OnTabEvent(event schema.TabEvent)
}
