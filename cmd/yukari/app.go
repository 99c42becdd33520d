package main

import (
	"context"
	"errors"

	"github.com/samcharles93/yukari/internal/command"
	"github.com/samcharles93/yukari/internal/logger"
	"github.com/samcharles93/yukari/internal/memory"
	"github.com/samcharles93/yukari/internal/session"
)

// app is one conversation wired end to end: engine, memory book, session
// and the dispatcher in front of them.
type app struct {
	engine     *engine
	book       *memory.Book
	session    *session.Session
	dispatcher *command.Dispatcher
}

func openBook(ctx context.Context, path string) (*memory.Book, error) {
	storage, err := memory.OpenStorage(path)
	if err != nil {
		return nil, err
	}
	book, err := memory.Open(ctx, storage)
	if err != nil {
		_ = storage.Close()
		return nil, err
	}
	return book, nil
}

func openApp(ctx context.Context, rc runConfig) (*app, error) {
	log := logger.FromContext(ctx)

	eng, err := buildEngine(ctx, rc)
	if err != nil {
		return nil, err
	}
	book, err := openBook(ctx, rc.MemoryPath)
	if err != nil {
		return nil, err
	}
	sess, err := session.New(session.Config{
		Context:   rc.Context,
		Tokenizer: eng.Tokenizer,
		Generator: eng.decoder(rc.Seed),
		Memory:    book,
		Settings:  rc.Settings,
		Logger:    log,
	})
	if err != nil {
		return nil, errors.Join(err, book.Close())
	}
	log.With(logger.ComponentKey, "init").Info("session ready",
		"backend", eng.Backend,
		"memories", len(book.All()),
		"past_length", rc.Settings.PastLength,
		"output_length", rc.Settings.OutputLength,
	)
	return &app{
		engine:     eng,
		book:       book,
		session:    sess,
		dispatcher: command.New(sess, book, log),
	}, nil
}

func (a *app) Close() error {
	a.session.Stop()
	return a.book.Close()
}
