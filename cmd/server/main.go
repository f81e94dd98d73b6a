// Package main - Entry point for the AVD price estimation server
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"avd-cost/internal/app"
	"avd-cost/internal/config"
	"avd-cost/internal/logging"
)

const version = "1.0.0"

func main() {
	addr := flag.String("addr", "", "Server address (default from config, or FUNCTIONS_CUSTOMHANDLER_PORT)")
	cfgPath := flag.String("config", "", "Path to config file (.json, .yaml or .hcl)")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	// The function host passes the port it forwards requests to
	listen := *addr
	if listen == "" {
		if port := os.Getenv("FUNCTIONS_CUSTOMHANDLER_PORT"); port != "" {
			listen = ":" + port
		}
	}

	a, err := app.New(cfg, logging.Logger, nil)
	if err != nil {
		logging.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := app.WithSignals(context.Background())
	defer stop()

	logging.Info("avd-cost server starting", zap.String("version", version))
	if err := a.Serve(ctx, listen); err != nil {
		logging.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
