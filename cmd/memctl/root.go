package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	json2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joshuapare/memkit/mem/alloc"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	backing string
)

var rootCmd = &cobra.Command{
	Use:   "memctl",
	Short: "Exercise and inspect memkit allocators and tables",
	Long: `memctl drives the memkit arenas, hash tables and handle registry
from the command line. Each subcommand runs a small workload and reports what
the data structure did: offsets, chain shape, overflow use, reclaimed slots.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and debug logging")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		StringVar(&backing, "backing", "heap", "Backing allocator: heap, pages or tracker")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// newAllocator builds the allocator selected by --backing.
func newAllocator() (alloc.Allocator, error) {
	switch backing {
	case "", "heap":
		return alloc.Heap{}, nil
	case "pages":
		return alloc.NewPages(), nil
	case "tracker":
		return alloc.NewTracker(nil, 0), nil
	}
	return nil, errors.Newf("unknown backing allocator %q (want heap, pages or tracker)", backing)
}

// trackerStats returns the tracker counters when --backing=tracker.
func trackerStats(a alloc.Allocator) *alloc.Stats {
	if tr, ok := a.(*alloc.Tracker); ok {
		st := tr.Stats()
		return &st
	}
	return nil
}

// newLogger returns a development logger in verbose mode and a no-op logger otherwise.
func newLogger() *zap.Logger {
	if !verbose || quiet {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as indented JSON
func printJSON(v any) error {
	b, err := json2.Marshal(v, jsontext.WithIndent("  "))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(b))
	return err
}
