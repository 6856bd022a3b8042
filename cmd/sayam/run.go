package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/sayam"
	"pkt.systems/sayam/internal/appconfig"
)

func newRunCmd() *cobra.Command {
	var cfgPath string
	var headless bool
	var backendURL string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the study assistant shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if headless {
				cfg.Browser.Headless = true
			}
			if backendURL != "" {
				cfg.Backend.URL = backendURL
			}

			shell, err := sayam.New(sayam.ShellConfig{
				Session: cfg.SessionConfig(),
				Browser: cfg.BrowserSchemaConfig(),
			}, sayam.ShellDeps{Logger: logger})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := shell.Stop(stopCtx); err != nil {
					logger.Warn("shell stop failed", "err", err)
				}
			}()
			logger.Info("shell starting",
				"backend_url", cfg.Backend.URL,
				"state_dir", cfg.StateDir,
				"headless", cfg.Browser.Headless,
			)
			if err := shell.Start(ctx); err != nil {
				return err
			}
			return shell.Wait()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().BoolVar(&headless, "headless", false, "run the browser headless")
	cmd.Flags().StringVar(&backendURL, "backend-url", "", "override the agent backend websocket URL")
	return cmd
}
