// Package browser owns the embedded browser: tab lifecycle, geometry,
// the study mode request blocklist and page text extraction.
package browser

import (
	"context"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/sayam/internal/logx"
	"pkt.systems/sayam/schema"
)

// ControllerDeps captures dependencies for the browser controller.
type ControllerDeps struct {
	Factory SurfaceFactory
	Sink    TabEventSink
	Logger  pslog.Logger
}

// Controller is the single owner of all tab state. Transports and the
// session controller call into it; nothing else touches surfaces.
type Controller struct {
	cfg     schema.BrowserConfig
	factory SurfaceFactory
	sink    TabEventSink
	logger  pslog.Logger

	mu       sync.Mutex
	tabs     map[schema.TabID]*tab
	order    []schema.TabID
	active   schema.TabID
	bounds   schema.Rect
	hidden   bool
	blocking bool
}

type tab struct {
	id      schema.TabID
	surface Surface
	info    SurfaceInfo
}

// NewController constructs the browser controller. Start must be called
// to open the initial tab.
func NewController(cfg schema.BrowserConfig, deps ControllerDeps) (*Controller, error) {
	normalized, err := schema.NormalizeBrowserConfig(cfg)
	if err != nil {
		return nil, err
	}
	if deps.Factory == nil {
		return nil, schema.ErrInvalidRequest
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Controller{
		cfg:     normalized,
		factory: deps.Factory,
		sink:    deps.Sink,
		logger:  logger,
		tabs:    make(map[schema.TabID]*tab),
	}, nil
}

// Start opens the initial tab. There is always at least one tab after a
// successful Start; CloseTab refuses to remove the last one.
func (c *Controller) Start(ctx context.Context) error {
	_, err := c.OpenTab(ctx, c.cfg.StartURL)
	return err
}

// OpenTab creates a tab, navigated to rawURL (the configured start page
// when empty), and makes it active.
func (c *Controller) OpenTab(ctx context.Context, rawURL string) (schema.TabSnapshot, error) {
	target := c.cfg.StartURL
	if rawURL != "" {
		normalized, err := normalizeTarget(rawURL)
		if err != nil {
			return schema.TabSnapshot{}, err
		}
		target = normalized
	}

	c.mu.Lock()
	blocking := c.blocking
	c.mu.Unlock()
	if blocking && blockedHost(target, c.cfg.BlockedDomains) {
		target = c.cfg.BlockedPage
	}

	id := schema.TabID(newID())
	sctx := pslog.ContextWithLogger(ctx, c.logger)
	tabLog := logx.WithTab(sctx, id)
	sctx = logx.ContextWithTabLogger(sctx, tabLog, id)
	surface, err := c.factory.NewSurface(sctx, id, target, func(info SurfaceInfo) {
		c.surfaceUpdated(id, info)
	})
	if err != nil {
		tabLog.Warn("browser tab open failed", "err", err)
		return schema.TabSnapshot{}, err
	}
	if blocking {
		if err := surface.SetBlockedPatterns(ctx, expandPatterns(c.cfg.BlockedDomains)); err != nil {
			c.logger.Warn("browser blocklist install failed", "tab", id, "err", err)
		}
	}

	c.mu.Lock()
	t := &tab{id: id, surface: surface, info: SurfaceInfo{URL: target}}
	c.tabs[id] = t
	c.order = append(c.order, id)
	previous := c.active
	c.active = id
	events := []schema.TabEvent{
		{Type: schema.TabEventCreated, Tab: c.snapshotLocked(t), ActiveTab: id},
	}
	snapshot := c.snapshotLocked(t)
	c.mu.Unlock()

	c.applyVisibility(ctx, previous, id)
	c.emit(events)
	c.logger.Info("browser tab open", "tab", id, "url", target)
	return snapshot, nil
}

// CloseTab removes a tab. Closing the active tab promotes its right-hand
// neighbor, clamped to the new end of the strip. The last tab cannot be
// closed; the shell always has a surface.
func (c *Controller) CloseTab(ctx context.Context, id schema.TabID) error {
	c.mu.Lock()
	t, ok := c.tabs[id]
	if !ok {
		c.mu.Unlock()
		return schema.ErrTabNotFound
	}
	if len(c.order) == 1 {
		c.mu.Unlock()
		return schema.ErrLastTab
	}
	index := 0
	for i, other := range c.order {
		if other == id {
			index = i
			break
		}
	}
	c.order = append(c.order[:index], c.order[index+1:]...)
	delete(c.tabs, id)

	promoted := schema.TabID("")
	if c.active == id {
		if index >= len(c.order) {
			index = len(c.order) - 1
		}
		c.active = c.order[index]
		promoted = c.active
	}
	closedSnapshot := c.snapshotLocked(t)
	events := []schema.TabEvent{
		{Type: schema.TabEventClosed, Tab: closedSnapshot, ActiveTab: c.active},
	}
	var promotedTab *tab
	if promoted != "" {
		promotedTab = c.tabs[promoted]
		events = append(events, schema.TabEvent{Type: schema.TabEventActivated, Tab: c.snapshotLocked(promotedTab), ActiveTab: promoted})
	}
	c.mu.Unlock()

	if err := t.surface.Close(ctx); err != nil {
		c.logger.Warn("browser surface close failed", "tab", id, "err", err)
	}
	if promotedTab != nil {
		c.applyVisibility(ctx, "", promoted)
	}
	c.emit(events)
	c.logger.Info("browser tab close", "tab", id, "active", c.ActiveTab())
	return nil
}

// ActivateTab switches the visible tab. Activating the active tab is a
// no-op and emits nothing.
func (c *Controller) ActivateTab(ctx context.Context, id schema.TabID) error {
	c.mu.Lock()
	t, ok := c.tabs[id]
	if !ok {
		c.mu.Unlock()
		return schema.ErrTabNotFound
	}
	if c.active == id {
		c.mu.Unlock()
		return nil
	}
	previous := c.active
	c.active = id
	events := []schema.TabEvent{
		{Type: schema.TabEventActivated, Tab: c.snapshotLocked(t), ActiveTab: id},
	}
	c.mu.Unlock()

	c.applyVisibility(ctx, previous, id)
	c.emit(events)
	return nil
}

// Navigate loads rawURL in the active tab. Blocklisted targets are
// replaced by the placeholder page while blocking is on.
func (c *Controller) Navigate(ctx context.Context, rawURL string) error {
	target, err := normalizeTarget(rawURL)
	if err != nil {
		return err
	}
	t, err := c.activeTab()
	if err != nil {
		return err
	}
	c.mu.Lock()
	blocking := c.blocking
	c.mu.Unlock()
	if blocking && blockedHost(target, c.cfg.BlockedDomains) {
		target = c.cfg.BlockedPage
	}
	if err := t.surface.Navigate(ctx, target); err != nil {
		return err
	}
	// The surface pushes the authoritative state later; updating the cache
	// now keeps blocklist redirect checks current in the meantime.
	c.mu.Lock()
	t.info.URL = target
	c.mu.Unlock()
	return nil
}

// Back navigates the active tab one history entry back.
func (c *Controller) Back(ctx context.Context) error {
	t, err := c.activeTab()
	if err != nil {
		return err
	}
	return t.surface.Back(ctx)
}

// Forward navigates the active tab one history entry forward.
func (c *Controller) Forward(ctx context.Context) error {
	t, err := c.activeTab()
	if err != nil {
		return err
	}
	return t.surface.Forward(ctx)
}

// Reload reloads the active tab.
func (c *Controller) Reload(ctx context.Context) error {
	t, err := c.activeTab()
	if err != nil {
		return err
	}
	return t.surface.Reload(ctx)
}

// SetBounds positions the active surface. A zero rect hides it; the page
// keeps running so audio, timers and login flows survive a hide.
func (c *Controller) SetBounds(ctx context.Context, rect schema.Rect) error {
	c.mu.Lock()
	c.bounds = rect
	c.hidden = rect.IsZero()
	id := c.active
	c.mu.Unlock()
	if id == "" {
		return schema.ErrNoTabs
	}
	c.applyVisibility(ctx, "", id)
	return nil
}

// Tabs returns all tabs in creation order and the active id.
func (c *Controller) Tabs(ctx context.Context) schema.TabList {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := schema.TabList{ActiveTab: c.active}
	for _, id := range c.order {
		list.Tabs = append(list.Tabs, c.snapshotLocked(c.tabs[id]))
	}
	return list
}

// ActiveTab returns the active tab id.
func (c *Controller) ActiveTab() schema.TabID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// SetBlocking toggles the study mode blocklist on every tab. The toggle
// is idempotent; repeated enables re-install the same patterns. Enabling
// also redirects tabs already sitting on a blocklisted page.
func (c *Controller) SetBlocking(ctx context.Context, enabled bool) error {
	c.mu.Lock()
	c.blocking = enabled
	tabs := make([]*tab, 0, len(c.order))
	for _, id := range c.order {
		tabs = append(tabs, c.tabs[id])
	}
	c.mu.Unlock()

	patterns := []string{}
	if enabled {
		patterns = expandPatterns(c.cfg.BlockedDomains)
	}
	var firstErr error
	for _, t := range tabs {
		if err := t.surface.SetBlockedPatterns(ctx, patterns); err != nil {
			c.logger.Warn("browser blocklist toggle failed", "tab", t.id, "enabled", enabled, "err", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if enabled && blockedHost(c.currentURL(t.id), c.cfg.BlockedDomains) {
			if err := t.surface.Navigate(ctx, c.cfg.BlockedPage); err != nil {
				c.logger.Warn("browser blocklist redirect failed", "tab", t.id, "err", err)
			}
		}
	}
	c.logger.Info("browser blocklist", "enabled", enabled, "tabs", len(tabs))
	return firstErr
}

// ActivePageText extracts readable text from the active tab.
func (c *Controller) ActivePageText(ctx context.Context) (string, error) {
	t, err := c.activeTab()
	if err != nil {
		return "", err
	}
	return extractPageText(ctx, t.surface, c.logger), nil
}

// Close tears down every surface.
func (c *Controller) Close(ctx context.Context) {
	c.mu.Lock()
	tabs := make([]*tab, 0, len(c.order))
	for _, id := range c.order {
		tabs = append(tabs, c.tabs[id])
	}
	c.tabs = make(map[schema.TabID]*tab)
	c.order = nil
	c.active = ""
	c.mu.Unlock()
	for _, t := range tabs {
		if err := t.surface.Close(ctx); err != nil {
			c.logger.Warn("browser surface close failed", "tab", t.id, "err", err)
		}
	}
}

// surfaceUpdated records pushed surface state and emits the matching tab
// events. Runs on the surface owner's goroutine.
func (c *Controller) surfaceUpdated(id schema.TabID, info SurfaceInfo) {
	c.mu.Lock()
	t, ok := c.tabs[id]
	if !ok {
		c.mu.Unlock()
		return
	}
	previous := t.info
	t.info = info
	snapshot := c.snapshotLocked(t)
	active := c.active
	c.mu.Unlock()

	var events []schema.TabEvent
	if previous.URL != info.URL || previous.CanGoBack != info.CanGoBack || previous.CanGoForward != info.CanGoForward {
		events = append(events, schema.TabEvent{Type: schema.TabEventNav, Tab: snapshot, ActiveTab: active})
	}
	if previous.Loading != info.Loading {
		events = append(events, schema.TabEvent{Type: schema.TabEventLoading, Tab: snapshot, ActiveTab: active})
	}
	if previous.Title != info.Title {
		events = append(events, schema.TabEvent{Type: schema.TabEventTitle, Tab: snapshot, ActiveTab: active})
	}
	c.emit(events)
}

func (c *Controller) activeTab() (*tab, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == "" {
		return nil, schema.ErrNoTabs
	}
	t, ok := c.tabs[c.active]
	if !ok {
		return nil, schema.ErrNoTabs
	}
	return t, nil
}

func (c *Controller) currentURL(id schema.TabID) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.tabs[id]; ok {
		return t.info.URL
	}
	return ""
}

// applyVisibility hides the previously active surface and positions the
// newly active one. A hidden shell keeps all surfaces at zero bounds.
func (c *Controller) applyVisibility(ctx context.Context, previous, next schema.TabID) {
	c.mu.Lock()
	bounds := c.bounds
	hidden := c.hidden
	prevTab := c.tabs[previous]
	nextTab := c.tabs[next]
	c.mu.Unlock()

	if prevTab != nil {
		if err := prevTab.surface.SetBounds(ctx, schema.Rect{}); err != nil {
			c.logger.Warn("browser surface hide failed", "tab", previous, "err", err)
		}
	}
	if nextTab == nil {
		return
	}
	if hidden || bounds.IsZero() {
		bounds = schema.Rect{}
	}
	if err := nextTab.surface.SetBounds(ctx, bounds); err != nil {
		c.logger.Warn("browser surface bounds failed", "tab", next, "err", err)
	}
}

func (c *Controller) snapshotLocked(t *tab) schema.TabSnapshot {
	return schema.TabSnapshot{
		ID:           t.id,
		URL:          t.info.URL,
		Title:        t.info.Title,
		IsLoading:    t.info.Loading,
		CanGoBack:    t.info.CanGoBack,
		CanGoForward: t.info.CanGoForward,
	}
}

func (c *Controller) emit(events []schema.TabEvent) {
	if c.sink == nil {
		return
	}
	for _, event := range events {
		c.sink.OnTabEvent(event)
	}
}
