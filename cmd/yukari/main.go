package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/yukari/internal/logger"
)

func main() {
	app := &cli.Command{
		Name:  "yukari",
		Usage: "Conversational text generation with history and memory",
		Flags: rootFlags(),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			f, err := loadConfigFile()
			if err != nil {
				return ctx, err
			}
			applyLoggingConfig(cmd, f)
			log := logger.FromFlags(logLevel, logFormat, debug, os.Stderr)
			return logger.WithContext(ctx, log), nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			chatCmd(),
			serveCmd(),
			generateCmd(),
			memoryCmd(),
			versionCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
