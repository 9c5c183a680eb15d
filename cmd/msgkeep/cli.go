package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/msgkeep"
	"github.com/hpungsan/msgkeep/internal/errors"
)

// newApp creates the CLI application with all commands. Extra options
// are threaded into every Keeper the commands build; tests use them to
// inject a resolver and a quiet logger.
func newApp(opts ...msgkeep.Option) *cli.App {
	app := &cli.App{
		Name:    "msgkeep",
		Usage:   "Keep commit messages that failing pre-commit hooks would discard",
		Version: Version,
		Commands: []*cli.Command{
			restoreCmd(opts),
			dumpCmd(opts),
			clearCmd(opts),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// restoreCmd creates the restore command, the prepare-commit-msg hook
// entry point.
func restoreCmd(opts []msgkeep.Option) *cli.Command {
	return &cli.Command{
		Name:      "restore",
		Usage:     "Merge the saved message for this repository and branch into the commit message file",
		ArgsUsage: "<message-file>",
		Flags:     msgkeep.Flags(),
		Action: func(c *cli.Context) error {
			msgFile := msgkeep.MessageFile(c)
			if msgFile == "" {
				return outputError(errors.NewInvalidInput("message file argument is required"))
			}

			k := msgkeep.FromContext(c, opts...)
			defer k.Sync()

			// A restore problem must never abort the commit git is
			// preparing, so failures are reported, not fatal.
			if err := k.Restore(msgFile); err != nil {
				fmt.Fprintf(os.Stderr, "msgkeep: %v\n", err)
			}
			return nil
		},
	}
}

// dumpOutput is the JSON shape printed by the dump command.
type dumpOutput struct {
	Count    int             `json:"count"`
	Messages []msgkeep.Saved `json:"messages"`
}

// dumpCmd creates the dump command.
func dumpCmd(opts []msgkeep.Option) *cli.Command {
	return &cli.Command{
		Name:  "dump",
		Usage: "Print saved messages as JSON",
		Flags: append(msgkeep.Flags(),
			&cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "Include every repository, not just the current one"},
		),
		Action: func(c *cli.Context) error {
			k := msgkeep.FromContext(c, opts...)
			defer k.Sync()

			messages, err := k.List(c.Bool("all"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(dumpOutput{Count: len(messages), Messages: messages})
		},
	}
}

// clearOutput is the JSON shape printed by the clear command.
type clearOutput struct {
	Cleared int `json:"cleared"`
}

// clearCmd creates the clear command.
func clearCmd(opts []msgkeep.Option) *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Drop the saved message for the current repository and branch",
		Flags: append(msgkeep.Flags(),
			&cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "Drop every saved message instead"},
		),
		Action: func(c *cli.Context) error {
			k := msgkeep.FromContext(c, opts...)
			defer k.Sync()

			n, err := k.Clear(c.Bool("all"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(clearOutput{Cleared: n})
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if keepErr, ok := err.(*errors.KeepError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", keepErr.Code, keepErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
