package browser

import (
	"context"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"pkt.systems/pslog"
	"pkt.systems/sayam/internal/logx"
	"pkt.systems/sayam/schema"
)

// ChromeFactory creates chromedp-backed surfaces sharing one Chrome
// process. Each surface is its own page target with its own window.
type ChromeFactory struct {
	cfg      schema.BrowserConfig
	allocCtx context.Context
	cancel   context.CancelFunc
	logger   pslog.Logger
}

// NewChromeFactory launches the shared allocator. Close releases Chrome.
func NewChromeFactory(ctx context.Context, cfg schema.BrowserConfig, logger pslog.Logger) (*ChromeFactory, error) {
	normalized, err := schema.NormalizeBrowserConfig(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = pslog.Ctx(ctx)
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", normalized.Headless),
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
	)
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	return &ChromeFactory{cfg: normalized, allocCtx: allocCtx, cancel: cancel, logger: logger}, nil
}

// Close shuts the shared Chrome process down.
func (f *ChromeFactory) Close() {
	f.cancel()
}

// NewSurface opens a page target and navigates it to startURL.
func (f *ChromeFactory) NewSurface(ctx context.Context, id schema.TabID, startURL string, onUpdate func(SurfaceInfo)) (Surface, error) {
	tabCtx, cancel := chromedp.NewContext(f.allocCtx)
	s := &chromeSurface{
		ctx:         tabCtx,
		cancel:      cancel,
		logger:      logx.WithTab(ctx, id),
		blockedPage: f.cfg.BlockedPage,
		onUpdate:    onUpdate,
	}
	chromedp.ListenTarget(tabCtx, s.handleEvent)
	if err := chromedp.Run(tabCtx, chromedp.Navigate(startURL)); err != nil {
		cancel()
		return nil, err
	}
	return s, nil
}

// chromeSurface drives one page target. Chromedp actions run on the tab
// context; the caller's context only scopes derived deadlines.
type chromeSurface struct {
	ctx         context.Context
	cancel      context.CancelFunc
	logger      pslog.Logger
	blockedPage string
	onUpdate    func(SurfaceInfo)
}

func (s *chromeSurface) handleEvent(ev any) {
	switch e := ev.(type) {
	case *target.EventTargetCreated:
		// Pages opened by this tab (window.open, target=_blank) fold back
		// into this surface; the shell is single-window.
		if url, ok := popupTarget(e.TargetInfo); ok {
			go s.adoptPopup(e.TargetInfo.TargetID, url)
		}
	case *network.EventLoadingFailed:
		// The blocklist cancels the request; the placeholder document
		// replaces Chrome's net-error page.
		if blockedNavigation(e) {
			go s.showBlockedPage()
		}
	case *page.EventFrameNavigated:
		if e.Frame.ParentID == "" {
			go s.pushInfo(false)
		}
	case *page.EventFrameStartedLoading:
		go s.pushInfo(true)
	case *page.EventLoadEventFired:
		go s.pushInfo(false)
	}
}

// popupTarget reports whether a created target is a popup opened by this
// surface, and the URL the opener asked for. An about:blank popup carries
// no destination worth adopting.
func popupTarget(info *target.Info) (string, bool) {
	if info == nil || info.Type != "page" || info.OpenerID == "" {
		return "", false
	}
	if info.URL == "about:blank" {
		return "", true
	}
	return info.URL, true
}

// blockedNavigation reports whether a load failure is a main-frame request
// cancelled by the blocklist rules.
func blockedNavigation(e *network.EventLoadingFailed) bool {
	return e != nil && e.Type == network.ResourceTypeDocument && e.BlockedReason != ""
}

// adoptPopup redirects the popup's destination into this surface and
// closes the orphan target.
func (s *chromeSurface) adoptPopup(id target.ID, rawURL string) {
	if rawURL != "" {
		if err := chromedp.Run(s.ctx, chromedp.Navigate(rawURL)); err != nil {
			s.logger.Debug("browser popup adopt failed", "url", rawURL, "err", err)
		}
	}
	err := chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return target.CloseTarget(id).Do(ctx)
	}))
	if err != nil {
		s.logger.Debug("browser popup close failed", "err", err)
	}
}

func (s *chromeSurface) showBlockedPage() {
	if s.blockedPage == "" {
		return
	}
	if err := chromedp.Run(s.ctx, chromedp.Navigate(s.blockedPage)); err != nil {
		s.logger.Debug("browser blocked page load failed", "err", err)
	}
}

func (s *chromeSurface) pushInfo(loading bool) {
	if s.onUpdate == nil {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()
	info, err := s.Info(ctx)
	if err != nil {
		s.logger.Debug("browser surface info failed", "err", err)
		return
	}
	info.Loading = loading
	s.onUpdate(info)
}

func (s *chromeSurface) Navigate(ctx context.Context, rawURL string) error {
	return chromedp.Run(s.ctx, chromedp.Navigate(rawURL))
}

func (s *chromeSurface) Back(ctx context.Context) error {
	return chromedp.Run(s.ctx, chromedp.NavigateBack())
}

func (s *chromeSurface) Forward(ctx context.Context) error {
	return chromedp.Run(s.ctx, chromedp.NavigateForward())
}

func (s *chromeSurface) Reload(ctx context.Context) error {
	return chromedp.Run(s.ctx, chromedp.Reload())
}

func (s *chromeSurface) SetBounds(ctx context.Context, rect schema.Rect) error {
	return chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		windowID, _, err := cdpbrowser.GetWindowForTarget().Do(ctx)
		if err != nil {
			return err
		}
		if rect.IsZero() {
			bounds := &cdpbrowser.Bounds{WindowState: cdpbrowser.WindowStateMinimized}
			return cdpbrowser.SetWindowBounds(windowID, bounds).Do(ctx)
		}
		bounds := &cdpbrowser.Bounds{
			Left:        int64(rect.X),
			Top:         int64(rect.Y),
			Width:       int64(rect.Width),
			Height:      int64(rect.Height),
			WindowState: cdpbrowser.WindowStateNormal,
		}
		return cdpbrowser.SetWindowBounds(windowID, bounds).Do(ctx)
	}))
}

func (s *chromeSurface) SetBlockedPatterns(ctx context.Context, patterns []string) error {
	if patterns == nil {
		patterns = []string{}
	}
	return chromedp.Run(s.ctx,
		network.Enable(),
		network.SetBlockedURLs(patterns),
	)
}

func (s *chromeSurface) Evaluate(ctx context.Context, expr string, out any) error {
	return chromedp.Run(s.ctx, chromedp.Evaluate(expr, out))
}

func (s *chromeSurface) Info(ctx context.Context) (SurfaceInfo, error) {
	var info SurfaceInfo
	err := chromedp.Run(ctx,
		chromedp.Location(&info.URL),
		chromedp.Title(&info.Title),
		chromedp.ActionFunc(func(ctx context.Context) error {
			index, entries, err := page.GetNavigationHistory().Do(ctx)
			if err != nil {
				return err
			}
			info.CanGoBack = index > 0
			info.CanGoForward = index < int64(len(entries))-1
			return nil
		}),
	)
	return info, err
}

func (s *chromeSurface) Close(ctx context.Context) error {
	s.cancel()
	return nil
}
