// minigrep prints the lines of a file that contain a query.
//
// Usage:
//
//	minigrep [--ignore-case] QUERY FILE
//
// Matching is case-insensitive when --ignore-case is given or the
// IGNORE_CASE environment variable is set to any value. Errors go to
// stderr and exit with status 1.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/vnykmshr/hellopool/pkg/search"
)

const name = "minigrep"

// argsError marks failures to build a search from the command line.
type argsError struct{ err error }

func (e *argsError) Error() string { return e.err.Error() }
func (e *argsError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdout, os.Stderr, os.LookupEnv))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, lookupEnv func(string) (string, bool)) int {
	app := createApp(stdout, stderr, lookupEnv)
	if err := app.Run(ctx, args); err != nil {
		var ae *argsError
		if errors.As(err, &ae) {
			fmt.Fprintf(stderr, "Problem parsing arguments: %v\n", ae)
		} else {
			fmt.Fprintf(stderr, "Application error: %v\n", err)
		}
		return 1
	}
	return 0
}

func createApp(stdout, stderr io.Writer, lookupEnv func(string) (string, bool)) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     "print lines of FILE that contain QUERY",
		ArgsUsage: "QUERY FILE",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "ignore-case",
				Aliases: []string{"i"},
				Usage:   "match regardless of case (also enabled by " + search.IgnoreCaseEnv + ")",
			},
		},
		OnUsageError: func(_ context.Context, _ *cli.Command, err error, _ bool) error {
			return &argsError{err: err}
		},
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := search.Build(append([]string{name}, cmd.Args().Slice()...), lookupEnv)
			if err != nil {
				return &argsError{err: err}
			}
			if cmd.Bool("ignore-case") {
				cfg.IgnoreCase = true
			}
			return search.Run(cfg, cmd.Root().Writer)
		},
	}
}
