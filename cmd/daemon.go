package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/oscalarm/oscalarm/internal/config"
	"github.com/oscalarm/oscalarm/internal/daemon"
	"github.com/oscalarm/oscalarm/pkg/logger"
	"github.com/spf13/afero"
	"github.com/urfave/cli"
)

// setupShutdownHandler returns a context cancelled on SIGINT or SIGTERM.
func setupShutdownHandler() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newDaemonLogger writes to stderr and, when logFile is set, appends a copy
// to that file. Informational messages are only kept when debug logging is
// enabled.
func newDaemonLogger(fs afero.Fs, debug bool, logFile string) (logger.Logger, error) {
	var l logger.Logger = logger.NewStandardLogger(log.New(os.Stderr, "", log.LstdFlags))
	if logFile != "" {
		fl, err := logger.NewFileLogger(fs, logFile)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		l = logger.NewMultiLogger(l, fl)
	}
	if debug {
		return l, nil
	}
	return logger.Quiet(l), nil
}

func runDaemon(ctx *cli.Context) error {
	dir, err := config.Dir(os.Getenv)
	if err != nil {
		return reportErr(ctx, "daemon", "config_dir", err)
	}
	fs := afero.NewOsFs()
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return reportErr(ctx, "daemon", "config_dir", err)
	}
	cfg, err := config.Load(fs, dir, os.Getenv)
	if err != nil {
		return reportErr(ctx, "daemon", "load_config", err)
	}
	l, err := newDaemonLogger(fs, cfg.Debug, cfg.LogFile)
	if err != nil {
		return reportErr(ctx, "daemon", "log_file", err)
	}
	defer l.Close()

	r, err := daemon.New(&daemon.Options{
		Config:    cfg,
		Fs:        fs,
		Logger:    l,
		Version:   buildInfo.Version,
		Commit:    buildInfo.Commit,
		BuildType: buildInfo.BuildType,
	})
	if err != nil {
		return reportErr(ctx, "daemon", "new_runner", err)
	}

	sctx, cancel := setupShutdownHandler()
	defer cancel()
	go func() {
		select {
		case <-r.Ready():
			fmt.Fprintf(stdout, "oscalarm daemon: osc %s, rpc %s\n", r.OSCAddr(), r.RPCAddr())
		case <-sctx.Done():
		}
	}()
	if err := r.Start(sctx); err != nil && !errors.Is(err, context.Canceled) {
		return reportErr(ctx, "daemon", "run", err)
	}
	return nil
}
