// Package search implements a line-oriented substring search over text.
package search

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// IgnoreCaseEnv is the environment variable that switches Build to
// case-insensitive matching when it is set, whatever its value.
const IgnoreCaseEnv = "IGNORE_CASE"

// ErrNotEnoughArguments is returned by Build when the query or file path is missing.
var ErrNotEnoughArguments = errors.New("not enough arguments")

// Config describes a single search run.
type Config struct {
	Query      string
	FilePath   string
	IgnoreCase bool
}

// Build creates a Config from command-line arguments, where args[0] is the
// program name. lookupEnv is usually os.LookupEnv.
func Build(args []string, lookupEnv func(string) (string, bool)) (Config, error) {
	if len(args) < 3 {
		return Config{}, ErrNotEnoughArguments
	}

	ignoreCase := false
	if lookupEnv != nil {
		_, ignoreCase = lookupEnv(IgnoreCaseEnv)
	}

	return Config{
		Query:      args[1],
		FilePath:   args[2],
		IgnoreCase: ignoreCase,
	}, nil
}

// Run reads the configured file and writes every matching line to w.
func Run(cfg Config, w io.Writer) error {
	contents, err := os.ReadFile(cfg.FilePath)
	if err != nil {
		return fmt.Errorf("read %s: %w", cfg.FilePath, err)
	}

	var results []string
	if cfg.IgnoreCase {
		results = SearchCaseInsensitive(cfg.Query, string(contents))
	} else {
		results = Search(cfg.Query, string(contents))
	}

	for _, line := range results {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Search returns the lines of contents that contain query.
func Search(query, contents string) []string {
	var results []string
	for _, line := range lines(contents) {
		if strings.Contains(line, query) {
			results = append(results, line)
		}
	}
	return results
}

// SearchCaseInsensitive returns the lines of contents that contain query,
// ignoring case.
func SearchCaseInsensitive(query, contents string) []string {
	query = strings.ToLower(query)

	var results []string
	for _, line := range lines(contents) {
		if strings.Contains(strings.ToLower(line), query) {
			results = append(results, line)
		}
	}
	return results
}

// lines splits on "\n", strips one trailing "\r" per line and drops the
// empty piece after a final newline.
func lines(contents string) []string {
	if contents == "" {
		return nil
	}
	parts := strings.Split(contents, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	for i, p := range parts {
		parts[i] = strings.TrimSuffix(p, "\r")
	}
	return parts
}
