package main

import (
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/mem/arena"
	"github.com/joshuapare/memkit/mem/inttable"
	"github.com/joshuapare/memkit/mem/strtable"
)

// Set by the release build with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version, build and layout information",
		Long: `Print the memctl version together with the Go toolchain and platform it
was built for, and the layout constants compiled into memkit: the default
arena alignment, the inline key prefix of the string table and the default
integer table capacity.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion()
		},
	})
}

type layoutInfo struct {
	ArenaAlign      int `json:"arena_align"`
	KeyPrefix       int `json:"key_prefix"`
	IntTableDefault int `json:"inttable_default_capacity"`
}

type versionReport struct {
	Version  string     `json:"version"`
	Commit   string     `json:"commit"`
	Built    string     `json:"built"`
	Go       string     `json:"go"`
	Platform string     `json:"platform"`
	Module   string     `json:"module,omitzero"`
	Layout   layoutInfo `json:"layout"`
}

func buildVersionReport() versionReport {
	rep := versionReport{
		Version:  version,
		Commit:   commit,
		Built:    date,
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
		Layout: layoutInfo{
			ArenaAlign:      arena.DefaultAlign,
			KeyPrefix:       strtable.PrefixSize,
			IntTableDefault: inttable.DefaultCapacity,
		},
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		rep.Module = info.Main.Path
		// go install stamps the module version when no ldflags were given.
		if rep.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			rep.Version = info.Main.Version
		}
	}
	return rep
}

func runVersion() error {
	rep := buildVersionReport()
	if jsonOut {
		return printJSON(rep)
	}

	printInfo("memctl %s\n", rep.Version)
	printInfo("  commit: %s\n", rep.Commit)
	printInfo("  built: %s\n", rep.Built)
	printInfo("  go: %s %s\n", rep.Go, rep.Platform)
	printVerbose("  module: %s\n", rep.Module)
	printVerbose("  arena align: %d\n", rep.Layout.ArenaAlign)
	printVerbose("  key prefix: %d bytes\n", rep.Layout.KeyPrefix)
	printVerbose("  inttable default capacity: %d\n", rep.Layout.IntTableDefault)
	return nil
}
