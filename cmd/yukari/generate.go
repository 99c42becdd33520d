package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/yukari/internal/decode"
	"github.com/samcharles93/yukari/internal/logger"
	"github.com/samcharles93/yukari/internal/session"
)

func generateCmd() *cli.Command {
	var starter string

	return &cli.Command{
		Name:  "generate",
		Usage: "Continue a starter text once and print every sequence of the batch",
		Flags: append(append(modelFlags(), samplingFlags()...),
			&cli.StringFlag{
				Name:        "starter",
				Usage:       `starter text; \n and \' are unescaped`,
				Required:    true,
				Destination: &starter,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx).With(logger.ComponentKey, "ai")

			rc, err := resolveRunConfig(cmd)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			eng, err := buildEngine(ctx, rc)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			texts, stats, err := generateBatch(ctx, eng, unescapeStarter(starter), rc.Settings, rc.Seed)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			for i, text := range texts {
				fmt.Printf("[%d] %s\n", i, strings.TrimRight(text, "\n"))
			}
			log.Info("generated",
				"sequences", len(texts),
				"tokens", humanize.Comma(int64(stats.TokensGenerated)),
				"model_calls", stats.ModelCalls,
				"duration", stats.Duration,
				"tps", stats.TPS,
			)
			return nil
		},
	}
}

func unescapeStarter(s string) string {
	return session.Unescape(strings.ReplaceAll(s, `\n`, "\n"))
}

// generateBatch continues starter BatchSize times and returns each sequence
// as starter plus continuation, without the stop token or padding.
func generateBatch(ctx context.Context, eng *engine, starter string, settings session.Settings, seed int64) ([]string, decode.Stats, error) {
	if starter == "" {
		return nil, decode.Stats{}, errors.New("starter must not be empty")
	}
	if err := settings.Validate(); err != nil {
		return nil, decode.Stats{}, err
	}
	ids, err := eng.Tokenizer.Encode(starter)
	if err != nil {
		return nil, decode.Stats{}, fmt.Errorf("encode starter: %w", err)
	}
	batch := make([][]int, settings.BatchSize)
	for i := range batch {
		batch[i] = ids
	}

	results, stats, err := eng.decoder(seed).Generate(ctx, batch, settings.Sampling(), settings.OutputLength)
	if err != nil {
		return nil, stats, err
	}
	texts := make([]string, len(results))
	for i, r := range results {
		end := r.PromptLen + len(r.Continuation())
		text, err := eng.Tokenizer.Decode(r.Tokens[:end])
		if err != nil {
			return nil, stats, fmt.Errorf("decode sequence %d: %w", i, err)
		}
		if rest, ok := strings.CutPrefix(text, starter); ok {
			rest, _ = decode.Cut(rest, []decode.Pattern{decode.NewlinePattern})
			text = starter + rest
		}
		texts[i] = text
	}
	return texts, stats, nil
}
