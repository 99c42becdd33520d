package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/yukari/internal/command"
	"github.com/samcharles93/yukari/internal/config"
	"github.com/samcharles93/yukari/internal/logger"
)

func memoryCmd() *cli.Command {
	return &cli.Command{
		Name:  "memory",
		Usage: "Inspect and edit saved memories without starting a model",
		Commands: []*cli.Command{
			memorySubcommand("list", "memories", "List saved memories", ""),
			memorySubcommand("remember", "remember", "Save a memory", "<key> <description>"),
			memorySubcommand("forget", "forget", "Delete a memory", "<key>"),
		},
	}
}

// memorySubcommand runs the named dispatcher command against the memory
// book alone, so replies match the chat surface.
func memorySubcommand(name, dispatch, usage, argsUsage string) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: argsUsage,
		Flags:     []cli.Flag{memoryPathFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := fileConfig.MemoryPath
			if cmd.IsSet("memory-path") {
				path = memoryPath
			}
			if path == "" {
				path = config.DefaultMemoryPath
			}
			reply, err := runMemoryCommand(ctx, path, dispatch, cmd.Args().Slice())
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			fmt.Print(reply)
			if reply != "" && reply[len(reply)-1] != '\n' {
				fmt.Println()
			}
			return nil
		},
	}
}

func runMemoryCommand(ctx context.Context, path, name string, args []string) (reply string, err error) {
	book, err := openBook(ctx, path)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := book.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	d := command.New(nil, book, logger.FromContext(ctx))
	return d.Dispatch(ctx, name, args)
}
