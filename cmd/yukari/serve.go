package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/yukari/internal/api"
	"github.com/samcharles93/yukari/internal/logger"
)

var serveAddr = "127.0.0.1:8080"

func serveCmd() *cli.Command {
	var readTimeout time.Duration

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the command API over HTTP",
		Flags: append(turnFlags(),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       serveAddr,
				Destination: &serveAddr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			rc, err := resolveRunConfig(cmd)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			a, err := openApp(ctx, rc)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer func() {
				if err := a.Close(); err != nil {
					log.Warn("close memory storage", "error", err)
				}
			}()

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := api.NewServer(a.dispatcher, a.session, a.book, log)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.With(logger.ComponentKey, "init").Info("starting server", "address", rc.ServerAddress)
			sc := echo.StartConfig{
				Address: rc.ServerAddress,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
