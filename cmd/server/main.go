// @title        authflow API
// @version      1.0
// @description  Email/password signup with emailed verification codes, cookie sessions and password reset.
// @BasePath     /
// @securityDefinitions.apikey  CookieAuth
// @in                          cookie
// @name                        auth_token
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flags "github.com/jessevdk/go-flags"

	"authflow/internal/app"
	"authflow/internal/config"
	"authflow/internal/logging"
)

type options struct {
	ConfigFile string `short:"c" long:"config" default:"config/config.yaml" description:"Path to the YAML config file"`
	EnvFile    string `long:"env-file" default:".env" description:"Optional dotenv file loaded before environment overrides"`
}

func main() {
	var opts options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	cfg, err := config.Load(opts.ConfigFile, opts.EnvFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(os.Stdout, cfg.Server.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		log.Error(ctx, "server error", "error", err)
		a.Close()
		os.Exit(1)
	}
}
