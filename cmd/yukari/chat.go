package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/yukari/internal/logger"
)

const (
	chatPrompt  = "> "
	chatCommand = "/"
)

// chatDispatcher is the part of *command.Dispatcher the REPL drives.
type chatDispatcher interface {
	ParseLine(line, prefix string) (string, []string)
	Dispatch(ctx context.Context, name string, args []string) (string, error)
	Help() string
	Stop() bool
}

func chatCmd() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Talk to Yukari in the terminal",
		Description: "Plain lines are said to Yukari. Lines starting with / run a command,\n" +
			"for example /do wave, /remember rin Rin likes tea. or /temp 0.7.\n" +
			"/help lists the commands and /exit quits. Ctrl+C interrupts a reply.",
		Flags: turnFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
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
					logger.FromContext(ctx).Warn("close memory storage", "error", err)
				}
			}()

			interrupts := make(chan os.Signal, 1)
			signal.Notify(interrupts, os.Interrupt)
			defer signal.Stop(interrupts)

			return runChat(ctx, a.dispatcher, newLineReader(os.Stdin, os.Stdout), os.Stdout, interrupts)
		},
	}
}

// runChat reads lines until input ends or /exit. While a command runs, a
// value on interrupts stops the generation instead of killing the process.
func runChat(ctx context.Context, d chatDispatcher, in lineSource, out io.Writer, interrupts <-chan os.Signal) error {
	for {
		line, err := in.ReadLine(chatPrompt)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case chatCommand + "exit", chatCommand + "quit":
			return nil
		case chatCommand + "help":
			fmt.Fprint(out, d.Help())
			continue
		}

		name, args := d.ParseLine(line, chatCommand)
		reply, err := dispatchInterruptible(ctx, d, name, args, interrupts)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, strings.TrimRight(reply, "\n"))
		if ctx.Err() != nil {
			return nil
		}
	}
}

type dispatchResult struct {
	reply string
	err   error
}

func dispatchInterruptible(ctx context.Context, d chatDispatcher, name string, args []string, interrupts <-chan os.Signal) (string, error) {
	drain(interrupts)
	done := make(chan dispatchResult, 1)
	go func() {
		reply, err := d.Dispatch(ctx, name, args)
		done <- dispatchResult{reply, err}
	}()
	for {
		select {
		case r := <-done:
			return r.reply, r.err
		case <-interrupts:
			d.Stop()
		}
	}
}

// drain drops interrupts that arrived while no command was running.
func drain(interrupts <-chan os.Signal) {
	for {
		select {
		case <-interrupts:
		default:
			return
		}
	}
}
