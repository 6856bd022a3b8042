package browser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"pkt.systems/pslog"
	"pkt.systems/sayam/internal/logx"
	"pkt.systems/sayam/schema"
)

type fakeSurface struct {
	id          schema.TabID
	navigations []string
	patterns    [][]string
	bounds      []schema.Rect
	closed      bool
	url         string
	evaluate    func(expr string, out any) error
}

func (s *fakeSurface) Navigate(ctx context.Context, rawURL string) error {
	s.navigations = append(s.navigations, rawURL)
	s.url = rawURL
	return nil
}

func (s *fakeSurface) Back(ctx context.Context) error    { return nil }
func (s *fakeSurface) Forward(ctx context.Context) error { return nil }
func (s *fakeSurface) Reload(ctx context.Context) error  { return nil }

func (s *fakeSurface) SetBounds(ctx context.Context, rect schema.Rect) error {
	s.bounds = append(s.bounds, rect)
	return nil
}

func (s *fakeSurface) SetBlockedPatterns(ctx context.Context, patterns []string) error {
	s.patterns = append(s.patterns, append([]string(nil), patterns...))
	return nil
}

func (s *fakeSurface) Evaluate(ctx context.Context, expr string, out any) error {
	if s.evaluate != nil {
		return s.evaluate(expr, out)
	}
	if p, ok := out.(*string); ok {
		*p = ""
	}
	return nil
}

func (s *fakeSurface) Info(ctx context.Context) (SurfaceInfo, error) {
	return SurfaceInfo{URL: s.url}, nil
}

func (s *fakeSurface) Close(ctx context.Context) error {
	s.closed = true
	return nil
}

type fakeFactory struct {
	surfaces []*fakeSurface
	updates  []func(SurfaceInfo)
	ctxs     []context.Context
	err      error
}

func (f *fakeFactory) NewSurface(ctx context.Context, id schema.TabID, startURL string, onUpdate func(SurfaceInfo)) (Surface, error) {
	if f.err != nil {
		return nil, f.err
	}
	surface := &fakeSurface{id: id, url: startURL}
	surface.navigations = append(surface.navigations, startURL)
	f.surfaces = append(f.surfaces, surface)
	f.updates = append(f.updates, onUpdate)
	f.ctxs = append(f.ctxs, ctx)
	return surface, nil
}

type tabSinkRecorder struct {
	events []schema.TabEvent
}

func (r *tabSinkRecorder) OnTabEvent(event schema.TabEvent) {
	r.events = append(r.events, event)
}

func (r *tabSinkRecorder) ofType(eventType schema.TabEventType) []schema.TabEvent {
	var out []schema.TabEvent
	for _, event := range r.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

func newTestController(t *testing.T) (*Controller, *fakeFactory, *tabSinkRecorder) {
	t.Helper()
	factory := &fakeFactory{}
	sink := &tabSinkRecorder{}
	ctrl, err := NewController(schema.BrowserConfig{StartURL: "https://start.example"}, ControllerDeps{
		Factory: factory,
		Sink:    sink,
	})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return ctrl, factory, sink
}

func TestControllerStartOpensInitialTab(t *testing.T) {
	ctrl, factory, sink := newTestController(t)
	list := ctrl.Tabs(context.Background())
	if len(list.Tabs) != 1 || list.ActiveTab == "" {
		t.Fatalf("expected one active tab, got %+v", list)
	}
	if factory.surfaces[0].url != "https://start.example" {
		t.Fatalf("expected start url, got %q", factory.surfaces[0].url)
	}
	if len(sink.ofType(schema.TabEventCreated)) != 1 {
		t.Fatalf("expected created event, got %+v", sink.events)
	}
}

func TestControllerOpenTabActivatesAndHidesPrevious(t *testing.T) {
	ctrl, factory, _ := newTestController(t)
	ctx := context.Background()
	if err := ctrl.SetBounds(ctx, schema.Rect{X: 10, Y: 20, Width: 800, Height: 600}); err != nil {
		t.Fatalf("set bounds: %v", err)
	}
	snapshot, err := ctrl.OpenTab(ctx, "example.com/page")
	if err != nil {
		t.Fatalf("open tab: %v", err)
	}
	if got := ctrl.ActiveTab(); got != snapshot.ID {
		t.Fatalf("expected new tab active, got %q", got)
	}
	first := factory.surfaces[0]
	if len(first.bounds) == 0 || !first.bounds[len(first.bounds)-1].IsZero() {
		t.Fatalf("expected previous surface hidden, got %+v", first.bounds)
	}
	second := factory.surfaces[1]
	last := second.bounds[len(second.bounds)-1]
	if last.Width != 800 || last.Height != 600 {
		t.Fatalf("expected new surface at stored bounds, got %+v", last)
	}
	if second.url != "https://example.com/page" {
		t.Fatalf("expected https scheme added, got %q", second.url)
	}
}

func TestControllerCloseLastTabRejected(t *testing.T) {
	ctrl, _, _ := newTestController(t)
	ctx := context.Background()
	id := ctrl.ActiveTab()
	if err := ctrl.CloseTab(ctx, id); !errors.Is(err, schema.ErrLastTab) {
		t.Fatalf("expected ErrLastTab, got %v", err)
	}
	if len(ctrl.Tabs(ctx).Tabs) != 1 {
		t.Fatal("tab must survive a rejected close")
	}
}

func TestControllerCloseActivePromotesNeighbor(t *testing.T) {
	ctrl, factory, sink := newTestController(t)
	ctx := context.Background()
	b, _ := ctrl.OpenTab(ctx, "https://b.example")
	c, _ := ctrl.OpenTab(ctx, "https://c.example")
	if err := ctrl.ActivateTab(ctx, b.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if err := ctrl.CloseTab(ctx, b.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	// b held the middle slot; its right-hand neighbor c takes over.
	if got := ctrl.ActiveTab(); got != c.ID {
		t.Fatalf("expected %q promoted, got %q", c.ID, got)
	}
	if !factory.surfaces[1].closed {
		t.Fatal("expected closed surface torn down")
	}
	closedEvents := sink.ofType(schema.TabEventClosed)
	if len(closedEvents) != 1 || closedEvents[0].ActiveTab != c.ID {
		t.Fatalf("closed event must carry the replacement active tab, got %+v", closedEvents)
	}
}

func TestControllerCloseTailClampsToNewEnd(t *testing.T) {
	ctrl, _, _ := newTestController(t)
	ctx := context.Background()
	b, _ := ctrl.OpenTab(ctx, "https://b.example")
	if err := ctrl.CloseTab(ctx, b.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	list := ctrl.Tabs(ctx)
	if len(list.Tabs) != 1 || list.ActiveTab != list.Tabs[0].ID {
		t.Fatalf("expected first tab active, got %+v", list)
	}
}

func TestControllerCloseInactiveKeepsActive(t *testing.T) {
	ctrl, _, sink := newTestController(t)
	ctx := context.Background()
	first := ctrl.ActiveTab()
	b, _ := ctrl.OpenTab(ctx, "https://b.example")
	if err := ctrl.ActivateTab(ctx, first); err != nil {
		t.Fatalf("activate: %v", err)
	}
	before := len(sink.ofType(schema.TabEventActivated))
	if err := ctrl.CloseTab(ctx, b.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := ctrl.ActiveTab(); got != first {
		t.Fatalf("active tab must not change, got %q", got)
	}
	if got := len(sink.ofType(schema.TabEventActivated)); got != before {
		t.Fatal("closing an inactive tab must not emit an activation")
	}
}

func TestControllerActivateSameTabNoOp(t *testing.T) {
	ctrl, _, sink := newTestController(t)
	ctx := context.Background()
	before := len(sink.events)
	if err := ctrl.ActivateTab(ctx, ctrl.ActiveTab()); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if len(sink.events) != before {
		t.Fatal("re-activating the active tab must emit nothing")
	}
}

func TestControllerActivateUnknownTab(t *testing.T) {
	ctrl, _, _ := newTestController(t)
	if err := ctrl.ActivateTab(context.Background(), "nope"); !errors.Is(err, schema.ErrTabNotFound) {
		t.Fatalf("expected ErrTabNotFound, got %v", err)
	}
}

func TestControllerBlockingToggle(t *testing.T) {
	ctrl, factory, _ := newTestController(t)
	ctx := context.Background()
	if err := ctrl.SetBlocking(ctx, true); err != nil {
		t.Fatalf("enable: %v", err)
	}
	surface := factory.surfaces[0]
	installed := surface.patterns[len(surface.patterns)-1]
	if len(installed) != len(schema.DefaultBlockedDomains)*2 {
		t.Fatalf("expected apex+subdomain pattern per domain, got %d", len(installed))
	}
	found := false
	for _, pattern := range installed {
		if pattern == "*://*.youtube.com/*" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected subdomain pattern, got %v", installed)
	}
	// Idempotent: a second enable re-installs the same patterns.
	if err := ctrl.SetBlocking(ctx, true); err != nil {
		t.Fatalf("re-enable: %v", err)
	}
	again := surface.patterns[len(surface.patterns)-1]
	if len(again) != len(installed) {
		t.Fatalf("expected identical re-install, got %v", again)
	}
	if err := ctrl.SetBlocking(ctx, false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	cleared := surface.patterns[len(surface.patterns)-1]
	if len(cleared) != 0 {
		t.Fatalf("expected cleared patterns, got %v", cleared)
	}
}

func TestControllerBlockingRedirectsParkedTab(t *testing.T) {
	ctrl, factory, _ := newTestController(t)
	ctx := context.Background()
	if err := ctrl.Navigate(ctx, "https://www.youtube.com/watch?v=abc"); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if err := ctrl.SetBlocking(ctx, true); err != nil {
		t.Fatalf("enable: %v", err)
	}
	surface := factory.surfaces[0]
	last := surface.navigations[len(surface.navigations)-1]
	if !strings.HasPrefix(last, "data:text/html,") {
		t.Fatalf("expected redirect to placeholder, got %q", last)
	}
}

func TestControllerNavigateBlockedTarget(t *testing.T) {
	ctrl, factory, _ := newTestController(t)
	ctx := context.Background()
	if err := ctrl.SetBlocking(ctx, true); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if err := ctrl.Navigate(ctx, "reddit.com/r/all"); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	surface := factory.surfaces[0]
	last := surface.navigations[len(surface.navigations)-1]
	if !strings.HasPrefix(last, "data:text/html,") {
		t.Fatalf("expected placeholder for blocked target, got %q", last)
	}
}

func TestControllerOpenTabBlockedTarget(t *testing.T) {
	ctrl, factory, _ := newTestController(t)
	ctx := context.Background()
	if err := ctrl.SetBlocking(ctx, true); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if _, err := ctrl.OpenTab(ctx, "https://tiktok.com"); err != nil {
		t.Fatalf("open: %v", err)
	}
	opened := factory.surfaces[len(factory.surfaces)-1]
	if !strings.HasPrefix(opened.url, "data:text/html,") {
		t.Fatalf("expected placeholder start url, got %q", opened.url)
	}
}

func TestControllerNavigateInvalid(t *testing.T) {
	ctrl, _, _ := newTestController(t)
	if err := ctrl.Navigate(context.Background(), "   "); !errors.Is(err, schema.ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
}

func TestControllerSetBoundsZeroHides(t *testing.T) {
	ctrl, factory, _ := newTestController(t)
	ctx := context.Background()
	if err := ctrl.SetBounds(ctx, schema.Rect{Width: 640, Height: 480}); err != nil {
		t.Fatalf("show: %v", err)
	}
	if err := ctrl.SetBounds(ctx, schema.Rect{}); err != nil {
		t.Fatalf("hide: %v", err)
	}
	surface := factory.surfaces[0]
	last := surface.bounds[len(surface.bounds)-1]
	if !last.IsZero() {
		t.Fatalf("expected zero bounds on hide, got %+v", last)
	}
	if surface.closed {
		t.Fatal("hide must not tear the surface down")
	}
}

func TestControllerSurfaceUpdateEmitsEvents(t *testing.T) {
	ctrl, factory, sink := newTestController(t)
	_ = ctrl
	factory.updates[0](SurfaceInfo{URL: "https://start.example/next", Title: "Next", CanGoBack: true})
	if len(sink.ofType(schema.TabEventNav)) != 1 {
		t.Fatalf("expected nav event, got %+v", sink.events)
	}
	if len(sink.ofType(schema.TabEventTitle)) != 1 {
		t.Fatalf("expected title event, got %+v", sink.events)
	}
	factory.updates[0](SurfaceInfo{URL: "https://start.example/next", Title: "Next", CanGoBack: true, Loading: true})
	if len(sink.ofType(schema.TabEventLoading)) != 1 {
		t.Fatalf("expected loading event, got %+v", sink.events)
	}
}

func TestControllerActivePageTextStrategyFallback(t *testing.T) {
	ctrl, factory, _ := newTestController(t)
	calls := 0
	factory.surfaces[0].evaluate = func(expr string, out any) error {
		calls++
		p := out.(*string)
		switch calls {
		case 1:
			return errors.New("script failed")
		case 2:
			*p = "   "
		case 3:
			*p = "lecture notes on thermodynamics"
		}
		return nil
	}
	text, err := ctrl.ActivePageText(context.Background())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if text != "lecture notes on thermodynamics" {
		t.Fatalf("unexpected text: %q", text)
	}
	if calls != 3 {
		t.Fatalf("expected fallback through 3 strategies, got %d", calls)
	}
}

func TestControllerActivePageTextAllFail(t *testing.T) {
	ctrl, factory, _ := newTestController(t)
	factory.surfaces[0].evaluate = func(expr string, out any) error {
		return errors.New("no dom")
	}
	text, err := ctrl.ActivePageText(context.Background())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty text, got %q", text)
	}
}

func TestControllerOpenTabBindsTabLogger(t *testing.T) {
	capture := &logCapture{}
	logger := pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		MinLevel:      pslog.InfoLevel,
		VerboseFields: true,
	})
	factory := &fakeFactory{}
	ctrl, err := NewController(schema.BrowserConfig{StartURL: "https://start.example"}, ControllerDeps{
		Factory: factory,
		Sink:    &tabSinkRecorder{},
		Logger:  logger,
	})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	id := ctrl.ActiveTab()
	// The factory context carries the tab-bound logger; surfaces pick it
	// up through logx without re-annotating.
	logx.WithTab(factory.ctxs[0], id).Info("surface ready")
	entry := capture.lastEntry(t)
	if entry["tab"] != string(id) {
		t.Fatalf("expected tab field %q, got %+v", id, entry)
	}
}

type logCapture struct {
	buf bytes.Buffer
}

func (c *logCapture) Write(p []byte) (int, error) {
	return c.buf.Write(p)
}

func (c *logCapture) lastEntry(t *testing.T) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(c.buf.Bytes()), []byte("\n"))
	entry := map[string]any{}
	if err := json.Unmarshal(lines[len(lines)-1], &entry); err != nil {
		t.Fatalf("parse log entry: %v", err)
	}
	return entry
}
