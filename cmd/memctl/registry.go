package main

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joshuapare/memkit/mem/alloc"
	"github.com/joshuapare/memkit/mem/handle"
)

var (
	regCount     int
	regCapacity  int
	regDropEvery int
	regAlways    bool
)

func init() {
	cmd := newRegistryCmd()
	cmd.Flags().IntVar(&regCount, "count", 100, "Number of values to register")
	cmd.Flags().IntVar(&regCapacity, "capacity", 8, "Initial slot capacity")
	cmd.Flags().IntVar(&regDropEvery, "drop-every", 2, "Drop the last reference of every Nth value (0 = none)")
	cmd.Flags().BoolVar(&regAlways, "always", false, "Register values in Always mode")
	rootCmd.AddCommand(cmd)
}

func newRegistryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "registry",
		Short: "Register, copy, drop and compact handles",
		Long: `The registry command registers values, takes and releases an extra
reference on each, drops the last reference of every Nth value and compacts
the registry. It reports destructor calls and reclaimed slots, and checks that
every surviving handle still resolves after growth and compaction.

Example:
  memctl registry --count 1000 --capacity 4
  memctl registry --drop-every 3 --json -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegistry()
		},
	}
}

type registryReport struct {
	Registered int          `json:"registered"`
	Destroyed  int          `json:"destroyed"`
	Reclaimed  int          `json:"reclaimed"`
	Live       int          `json:"live"`
	Slots      int          `json:"slots"`
	Backing    *alloc.Stats `json:"backing,omitzero"`
}

// payload stands in for an engine resource.
type payload struct {
	Index uint32
	Size  uint32
}

func runRegistry() error {
	a, err := newAllocator()
	if err != nil {
		return err
	}
	log := newLogger()
	defer func() { _ = log.Sync() }()

	var rep registryReport
	reg, err := handle.New[payload](a, regCapacity, func(*payload) { rep.Destroyed++ }, handle.WithLogger(log))
	if err != nil {
		return errors.Wrap(err, "create registry")
	}

	mode := handle.Counted
	if regAlways {
		mode = handle.Always
	}
	handles := make([]handle.Handle[payload], 0, regCount)
	for i := range regCount {
		h, err := reg.Register(payload{Index: uint32(i), Size: uint32(i * 16)}, mode)
		if err != nil {
			return err
		}
		c := h.Copy()
		if err := c.Drop(); err != nil {
			return err
		}
		handles = append(handles, h)
	}
	rep.Registered = len(handles)

	if regDropEvery > 0 {
		for i := regDropEvery - 1; i < len(handles); i += regDropEvery {
			if err := handles[i].Drop(); err != nil {
				return err
			}
		}
	}

	rep.Reclaimed, err = reg.Compact()
	if err != nil {
		return err
	}

	for i, h := range handles {
		if !h.Valid() {
			continue
		}
		p, ok := h.Use()
		if !ok || p.Index != uint32(i) {
			return errors.AssertionFailedf("handle %d no longer resolves to its value", h.ID)
		}
	}
	log.Info("registry workload done",
		zap.Int("registered", rep.Registered),
		zap.Int("destroyed", rep.Destroyed),
		zap.Int("reclaimed", rep.Reclaimed))

	rep.Live = reg.Live()
	rep.Slots = reg.Len()
	if err := reg.Free(); err != nil {
		return err
	}
	rep.Backing = trackerStats(a)

	if jsonOut {
		return printJSON(rep)
	}
	printInfo("registered %d, destroyed %d, reclaimed %d slots\n", rep.Registered, rep.Destroyed, rep.Reclaimed)
	printInfo("live %d in %d slots\n", rep.Live, rep.Slots)
	return nil
}
