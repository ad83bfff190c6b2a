package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"paramexport/internal/automation"
	"paramexport/internal/common/fsutil"
	"paramexport/internal/config"
	"paramexport/internal/export"
	"paramexport/internal/httpapi"
	"paramexport/internal/localengine"
	"paramexport/internal/logx"
)

var version = "dev"

// app carries resolved configuration between PersistentPreRunE and commands.
type app struct {
	logOut io.Writer

	configPath string
	flags      config.Config

	cfg config.Config
	zl  zerolog.Logger
}

func newRootCmd(logOut io.Writer) *cobra.Command {
	a := &app{logOut: logOut}
	root := &cobra.Command{
		Use:           "paramexport",
		Short:         "Update model parameters and export results",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (.yaml, .json, .toml)")
	root.PersistentFlags().StringVar(&a.flags.LogLevel, "log-level", "", "Log level: trace|debug|info|warn|error|off (default trace)")
	root.PersistentFlags().StringVar(&a.flags.LogFormat, "log-format", "", "Log format: json|console (default json)")
	root.PersistentFlags().IntVar(&a.flags.HeartbeatSeconds, "heartbeat", 0, "Seconds between liveness records (default 50)")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error { return a.resolve() }

	root.AddCommand(a.runCmd(), a.serveCmd(), versionCmd())
	return root
}

// resolve applies flags > env > config file > defaults.
func (a *app) resolve() error {
	cfg := a.flags.Merge(config.FromEnv(nil))
	if a.configPath != "" {
		p, err := fsutil.ExpandHome(a.configPath)
		if err != nil {
			return err
		}
		fileCfg, err := config.Load(p)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = cfg.Merge(fileCfg)
	}
	a.cfg = cfg.Merge(config.Default())
	zl, err := logx.New(a.cfg.LogLevel, a.cfg.LogFormat, a.logOut)
	if err != nil {
		return err
	}
	a.zl = zl
	return nil
}

func (a *app) runner() automation.Runner {
	return automation.Runner{Log: logx.FromZerolog(a.zl), Interval: a.cfg.Heartbeat()}
}

func (a *app) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <document> [changes.json] [arg...]",
		Short: "Apply a change set to a document and export the results",
		Long: "Opens <document>, applies the parameter change set named by the first trailing\n" +
			"argument (\"_1\") and writes Result.ipt/Result.bmp for parts or Result.zip for\n" +
			"assemblies. Failures are logged; the command itself does not fail.",
		Example: "  paramexport run ~/work/SquarePeg.ipt params.json",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := fsutil.ResolvePath(args[0])
			if err != nil {
				return err
			}
			rest := make([]string, 0, len(args)-1)
			for _, v := range args[1:] {
				if p, err := fsutil.ExpandHome(v); err == nil {
					v = p
				}
				rest = append(rest, v)
			}
			a.runner().RunPath(localengine.New(), doc, automation.PositionalArgs(rest))
			return nil
		},
	}
}

func (a *app) serveCmd() *cobra.Command {
	var addr string
	var swagger bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept work items over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Addr = addr
			}
			if cmd.Flags().Changed("swagger") {
				a.cfg.Swagger = &swagger
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default :8080)")
	cmd.Flags().BoolVar(&swagger, "swagger", false, "Serve API docs under /swagger/ (overrides config)")
	return cmd
}

func (a *app) serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng := localengine.New()
	runner := a.runner()
	q := httpapi.NewQueue(a.cfg.QueueDepth,
		func(doc string, args map[string]string) { runner.RunPath(eng, doc, args) },
		func(doc string) []string { return export.ExpectedOutputs(localengine.KindForPath(doc), doc) },
	)
	q.Start(ctx)

	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           httpapi.NewMux(q, httpapi.Options{Logger: a.zl, CORSOrigins: a.cfg.CORSOrigins, Swagger: a.cfg.SwaggerEnabled()}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.zl.Info().Str("addr", a.cfg.Addr).Msg("paramexport listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.zl.Error().Err(err).Msg("graceful shutdown error")
	}
	q.Close()
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "paramexport", version)
			return err
		},
	}
}
