package main

import (
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/yukari/internal/config"
	"github.com/samcharles93/yukari/internal/session"
)

// fileConfig is the config file with environment overrides applied. It is
// loaded once by the root command's Before hook.
var fileConfig config.File

// runConfig is what the subcommands run with once the file, the environment
// and the flags are merged. Explicitly set flags win.
type runConfig struct {
	Context          string
	ModelDir         string
	Backend          string
	PredictorURL     string
	PredictorTimeout time.Duration
	Seed             int64
	MemoryPath       string
	ServerAddress    string
	Settings         session.Settings
}

func loadConfigFile() (config.File, error) {
	path := configFile
	if path == "" {
		path = config.DefaultPath()
	}
	f, err := config.Load(path)
	if err != nil {
		return config.File{}, err
	}
	fileConfig = f.WithEnv(os.Getenv)
	return fileConfig, nil
}

// applyLoggingConfig applies config file defaults to the logging flags when
// they were not explicitly set.
func applyLoggingConfig(c *cli.Command, f config.File) {
	if f.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = f.LogLevel
	}
	if f.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = f.LogFormat
	}
}

// resolveRunConfig merges fileConfig with the flags of c.
func resolveRunConfig(c *cli.Command) (runConfig, error) {
	f := fileConfig
	rc := runConfig{
		Context:          f.Context,
		ModelDir:         f.ModelDir,
		Backend:          f.Backend,
		PredictorURL:     f.PredictorURL,
		PredictorTimeout: predictorTimeout,
		Seed:             seed,
		MemoryPath:       f.MemoryPath,
		ServerAddress:    f.ServerAddress,
		Settings:         f.Settings(session.DefaultSettings()),
	}
	if f.Seed != nil && !c.IsSet("seed") {
		rc.Seed = *f.Seed
	}
	if c.IsSet("context") {
		rc.Context = contextText
	}
	if c.IsSet("model-dir") {
		rc.ModelDir = modelDir
	}
	if c.IsSet("backend") || rc.Backend == "" {
		rc.Backend = backend
	}
	if c.IsSet("predictor-url") {
		rc.PredictorURL = predictorURL
	}
	if c.IsSet("memory-path") {
		rc.MemoryPath = memoryPath
	}
	if rc.MemoryPath == "" {
		rc.MemoryPath = config.DefaultMemoryPath
	}
	if c.IsSet("addr") {
		rc.ServerAddress = serveAddr
	}
	if rc.ServerAddress == "" {
		rc.ServerAddress = serveAddr
	}

	s := &rc.Settings
	if c.IsSet("temperature") {
		s.Temperature = temperature
	}
	if c.IsSet("top-k") {
		s.TopK = topK
	}
	if c.IsSet("top-p") {
		s.TopP = topP
	}
	if c.IsSet("nucleus") {
		s.Nucleus = nucleus
	}
	if c.IsSet("greedy") {
		s.Greedy = greedy
	}
	if c.IsSet("batch-size") {
		s.BatchSize = batchSize
	}
	if c.IsSet("output-length") {
		s.OutputLength = outputLength
	}
	if c.IsSet("past-length") {
		s.PastLength = pastLength
	}
	return rc, s.Validate()
}
