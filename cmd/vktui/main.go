package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/fx"

	"github.com/At1ass/VK-TUI/internal/app"
	"github.com/At1ass/VK-TUI/internal/bus"
	"github.com/At1ass/VK-TUI/internal/config"
	"github.com/At1ass/VK-TUI/internal/executor"
	"github.com/At1ass/VK-TUI/internal/session"
	"github.com/At1ass/VK-TUI/internal/tui"
	"github.com/At1ass/VK-TUI/internal/vkapi"
	"go.uber.org/zap"
)

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	flag.Parse()

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Sign in up front when no credential exists: the application
	// graph needs a token at construction time.
	if config.LoadEnv(session.ConfigPath()) == "" {
		td, err := vkapi.LoadToken(session.TokenPath(sessionName))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		if td == nil || td.Expired() {
			if err := tui.RunAuth(session.TokenPath(sessionName)); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
		}
	}

	if err := run(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(sessionName string) error {
	var (
		b    *bus.Bus
		exec *executor.Executor
		log  *zap.Logger
	)

	fxApp := fx.New(
		fx.NopLogger,
		app.Module(app.Params{SessionName: sessionName}),
		fx.Populate(&b, &exec, &log),
	)
	if err := fxApp.Err(); err != nil {
		return err
	}

	startCtx, cancel := fxTimeout()
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		return err
	}

	ui := tui.New(b, exec, sessionName, log)
	runErr := ui.Run()

	stopCtx, cancel := fxTimeout()
	defer cancel()
	if err := fxApp.Stop(stopCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func fxTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 15*time.Second)
}
