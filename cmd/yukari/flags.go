package main

import (
	"time"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/yukari/internal/session"
)

var (
	configFile string
	logLevel   string
	logFormat  string
	debug      bool

	modelDir         string
	backend          string
	predictorURL     string
	predictorTimeout time.Duration
	seed             int64

	contextText string
	memoryPath  string

	temperature  float64
	topK         int
	topP         float64
	nucleus      bool
	greedy       bool
	batchSize    int
	outputLength int
	pastLength   int
)

func rootFlags() []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default: <user config dir>/yukari/config.yaml)",
			Destination: &configFile,
		},
	}, loggingFlags()...)
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func modelFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "model-dir",
			Aliases:     []string{"model_dir", "m"},
			Usage:       "directory holding encoder.json and vocab.bpe",
			Destination: &modelDir,
		},
		&cli.StringFlag{
			Name:        "backend",
			Usage:       "prediction backend (auto, toy, remote)",
			Value:       "auto",
			Destination: &backend,
		},
		&cli.StringFlag{
			Name:        "predictor-url",
			Usage:       "base URL of the prediction sidecar (remote backend)",
			Destination: &predictorURL,
		},
		&cli.DurationFlag{
			Name:        "predictor-timeout",
			Usage:       "timeout for one prediction request",
			Value:       60 * time.Second,
			Destination: &predictorTimeout,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "seed for sampling and the toy model",
			Value:       1,
			Destination: &seed,
		},
	}
}

func samplingFlags() []cli.Flag {
	def := session.DefaultSettings()
	return []cli.Flag{
		&cli.Float64Flag{
			Name:        "temperature",
			Aliases:     []string{"temp", "t"},
			Usage:       "sampling temperature",
			Value:       def.Temperature,
			Destination: &temperature,
		},
		&cli.IntFlag{
			Name:        "top-k",
			Aliases:     []string{"top_k"},
			Usage:       "top-k cut-off",
			Value:       def.TopK,
			Destination: &topK,
		},
		&cli.Float64Flag{
			Name:        "top-p",
			Aliases:     []string{"top_p"},
			Usage:       "nucleus probability mass",
			Value:       def.TopP,
			Destination: &topP,
		},
		&cli.BoolFlag{
			Name:        "nucleus",
			Usage:       "use nucleus (top-p) sampling instead of top-k",
			Destination: &nucleus,
		},
		&cli.BoolFlag{
			Name:        "greedy",
			Usage:       "always take the most likely token",
			Destination: &greedy,
		},
		&cli.IntFlag{
			Name:        "batch-size",
			Aliases:     []string{"batch_size"},
			Usage:       "sequences generated per turn",
			Value:       def.BatchSize,
			Destination: &batchSize,
		},
		&cli.IntFlag{
			Name:        "output-length",
			Aliases:     []string{"output_length"},
			Usage:       "maximum generated tokens per turn",
			Value:       def.OutputLength,
			Destination: &outputLength,
		},
		&cli.IntFlag{
			Name:        "past-length",
			Aliases:     []string{"past_length"},
			Usage:       "history entries kept in the prompt (0 = all)",
			Value:       def.PastLength,
			Destination: &pastLength,
		},
	}
}

func conversationFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "context",
			Usage:       "text that opens every prompt",
			Destination: &contextText,
		},
		memoryPathFlag(),
	}
}

func memoryPathFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "memory-path",
		Usage:       "memory file (.json, or .db/.sqlite for SQLite)",
		Destination: &memoryPath,
	}
}

func turnFlags() []cli.Flag {
	flags := modelFlags()
	flags = append(flags, samplingFlags()...)
	return append(flags, conversationFlags()...)
}
