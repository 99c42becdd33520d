package main

import (
	"context"
	"fmt"

	"github.com/samcharles93/yukari/internal/decode"
	"github.com/samcharles93/yukari/internal/logger"
	"github.com/samcharles93/yukari/internal/model"
	"github.com/samcharles93/yukari/internal/sampling"
	"github.com/samcharles93/yukari/internal/tokenizer"
)

const (
	backendAuto   = "auto"
	backendToy    = "toy"
	backendRemote = "remote"

	toyHidden = 32
	// toyStopBoost raises newline and end-of-text so toy replies stay short.
	toyStopBoost = 4
)

// engine pairs a tokenizer with the predictor that shares its vocabulary.
type engine struct {
	Backend   string
	Tokenizer tokenizer.Tokenizer
	Predictor decode.TokenPredictor
}

func (e *engine) decoder(seed int64) *decode.Decoder {
	return decode.New(e.Predictor, sampling.NewSeeded(seed), e.Tokenizer, e.Tokenizer.EOSID())
}

func resolveBackend(rc runConfig) (string, error) {
	switch rc.Backend {
	case "", backendAuto:
		if rc.PredictorURL != "" {
			return backendRemote, nil
		}
		return backendToy, nil
	case backendToy, backendRemote:
		return rc.Backend, nil
	default:
		return "", fmt.Errorf("unknown backend %q (want auto, toy or remote)", rc.Backend)
	}
}

func loadTokenizer(rc runConfig) (tokenizer.Tokenizer, error) {
	if rc.ModelDir == "" {
		return tokenizer.ByteTokenizer{}, nil
	}
	tok, err := tokenizer.LoadGPT2Dir(rc.ModelDir)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	return tok, nil
}

func buildEngine(ctx context.Context, rc runConfig) (*engine, error) {
	log := logger.FromContext(ctx).With(logger.ComponentKey, "init")

	name, err := resolveBackend(rc)
	if err != nil {
		return nil, err
	}
	tok, err := loadTokenizer(rc)
	if err != nil {
		return nil, err
	}
	log.Info("tokenizer ready", "model_dir", rc.ModelDir, "vocab", tok.VocabSize(), "eos", tok.EOSID())

	e := &engine{Backend: name, Tokenizer: tok}
	switch name {
	case backendRemote:
		if rc.PredictorURL == "" {
			return nil, fmt.Errorf("remote backend needs --predictor-url")
		}
		remote := model.NewRemote(rc.PredictorURL, tok.VocabSize(), rc.PredictorTimeout)
		if err := remote.HealthCheck(ctx); err != nil {
			return nil, fmt.Errorf("predictor at %s: %w", rc.PredictorURL, err)
		}
		e.Predictor = remote
		log.Info("connected to predictor", "url", rc.PredictorURL)
	default:
		toy, err := model.NewToy(tok.VocabSize(), toyHidden, rc.Seed)
		if err != nil {
			return nil, err
		}
		toy.Boost(tok.EOSID(), toyStopBoost)
		if ids, err := tok.Encode("\n"); err == nil && len(ids) == 1 {
			toy.Boost(ids[0], toyStopBoost)
		}
		e.Predictor = toy
		log.Info("using toy model", "hidden", toyHidden, "seed", rc.Seed)
	}
	return e, nil
}
