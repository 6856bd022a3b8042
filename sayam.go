// Package sayam composes the study assistant shell: the realtime link to
// the agent backend, the session controller, the embedded browser and the
// UI event bus.
package sayam

import (
	"context"
	"errors"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/sayam/agentlink"
	"pkt.systems/sayam/browser"
	"pkt.systems/sayam/core"
	"pkt.systems/sayam/internal/eventbus"
	"pkt.systems/sayam/internal/persist"
	"pkt.systems/sayam/schema"
)

// Shell runs the composed client-side control plane.
type Shell interface {
	Start(ctx context.Context) error
	Wait() error
	Stop(ctx context.Context) error

	// Service exposes the session controller for UI bindings.
	Service() core.Service
	// Browser exposes the tab controller for UI bindings.
	Browser() *browser.Controller
	// Events exposes the UI event bus.
	Events() *eventbus.Bus
	// Snapshots exposes the study session snapshot store.
	Snapshots() *persist.Store
}

// ShellConfig configures the compositor.
type ShellConfig struct {
	Session schema.SessionConfig
	Browser schema.BrowserConfig
}

// ShellDeps captures dependencies required to build the shell.
type ShellDeps struct {
	// SurfaceFactory overrides the rendering backend; nil launches Chrome.
	SurfaceFactory browser.SurfaceFactory
	// EventSink is fanned in alongside the event bus when set.
	EventSink core.EventSink
	// TabSink is fanned in alongside the event bus when set.
	TabSink browser.TabEventSink
	Logger  pslog.Logger
}

// New constructs the shell. Start brings the link and the browser up.
func New(cfg ShellConfig, deps ShellDeps) (Shell, error) {
	session, err := schema.NormalizeSessionConfig(cfg.Session)
	if err != nil {
		return nil, err
	}
	cfg.Session = session

	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}

	bus := eventbus.New(logger)
	store, err := persist.NewStoreWithLogger(cfg.Session.StateDir, logger)
	if err != nil {
		return nil, err
	}

	var chrome *browser.ChromeFactory
	factory := deps.SurfaceFactory
	if factory == nil {
		// The allocator is lazy; Chrome launches with the first surface.
		chrome, err = browser.NewChromeFactory(context.Background(), cfg.Browser, logger)
		if err != nil {
			return nil, err
		}
		factory = chrome
	}

	var tabSink browser.TabEventSink = bus
	if deps.TabSink != nil {
		tabSink = tabFanout{sinks: []browser.TabEventSink{bus, deps.TabSink}}
	}
	ctrl, err := browser.NewController(cfg.Browser, browser.ControllerDeps{
		Factory: factory,
		Sink:    tabSink,
		Logger:  logger,
	})
	if err != nil {
		if chrome != nil {
			chrome.Close()
		}
		return nil, err
	}

	client, err := agentlink.New(cfg.Session, logger)
	if err != nil {
		if chrome != nil {
			chrome.Close()
		}
		return nil, err
	}

	var sink core.EventSink = bus
	if deps.EventSink != nil {
		sink = eventFanout{sinks: []core.EventSink{bus, deps.EventSink}}
	}
	service, err := core.NewService(cfg.Session, core.ServiceDeps{
		Sender:    client,
		Browser:   ctrl,
		Snapshots: store,
		EventSink: sink,
		Logger:    logger,
	})
	if err != nil {
		if chrome != nil {
			chrome.Close()
		}
		return nil, err
	}

	return &shell{
		cfg:     cfg,
		logger:  logger,
		bus:     bus,
		store:   store,
		chrome:  chrome,
		ctrl:    ctrl,
		client:  client,
		service: service,
	}, nil
}

type shell struct {
	cfg     ShellConfig
	logger  pslog.Logger
	bus     *eventbus.Bus
	store   *persist.Store
	chrome  *browser.ChromeFactory
	ctrl    *browser.Controller
	client  *agentlink.Client
	service core.Service

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	errCh   chan error
	started bool
}

func (s *shell) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		s.logger.Warn("shell start rejected", "reason", "already started")
		return errors.New("shell already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.errCh = make(chan error, 2)
	s.started = true
	s.mu.Unlock()

	s.logger.Info("shell start",
		"backend_url", s.cfg.Session.BackendURL,
		"state_dir", s.cfg.Session.StateDir,
	)
	if err := s.ctrl.Start(s.ctx); err != nil {
		s.logger.Error("shell browser start failed", "err", err)
		s.cancel()
		return err
	}
	go func() {
		err := s.client.Run(s.ctx, s.service)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("shell link failed", "err", err)
			s.errCh <- err
		}
	}()
	return nil
}

func (s *shell) Wait() error {
	s.mu.Lock()
	ctx := s.ctx
	errCh := s.errCh
	started := s.started
	s.mu.Unlock()
	if !started {
		return errors.New("shell not started")
	}
	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			s.logger.Error("shell stopped", "err", err)
			_ = s.Stop(context.Background())
			return err
		}
		return nil
	}
}

func (s *shell) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	started := s.started
	s.mu.Unlock()
	if !started {
		return nil
	}
	s.logger.Info("shell stop requested")
	if cancel != nil {
		cancel()
	}
	if err := s.client.Close(); err != nil {
		s.logger.Debug("shell link close failed", "err", err)
	}
	closeCtx := ctx
	if closeCtx == nil {
		closeCtx = context.Background()
	}
	s.ctrl.Close(closeCtx)
	if s.chrome != nil {
		s.chrome.Close()
	}
	s.logger.Info("shell stopped")
	return nil
}

func (s *shell) Service() core.Service        { return s.service }
func (s *shell) Browser() *browser.Controller { return s.ctrl }
func (s *shell) Events() *eventbus.Bus        { return s.bus }
func (s *shell) Snapshots() *persist.Store    { return s.store }
