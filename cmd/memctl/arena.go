package main

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/mem/alloc"
	"github.com/joshuapare/memkit/mem/arena"
)

var (
	arenaBudget int
	arenaSizes  []int
	arenaAlign  int
	arenaRounds int
)

func init() {
	cmd := newArenaCmd()
	cmd.Flags().IntVar(&arenaBudget, "budget", 4096, "Arena budget in bytes")
	cmd.Flags().IntSliceVar(&arenaSizes, "sizes", []int{16, 24, 100, 8, 512}, "Allocation sizes, in order")
	cmd.Flags().IntVar(&arenaAlign, "align", 0, "Alignment for every allocation (0 = 8)")
	cmd.Flags().IntVar(&arenaRounds, "rounds", 1, "Replay the sequence this many times, resetting in between")
	rootCmd.AddCommand(cmd)
}

func newArenaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "arena",
		Short: "Run an allocation sequence through a bump arena",
		Long: `The arena command reserves a budget, allocates each size in turn and
prints the offset of every region. With --rounds the arena is reset between
rounds, which replays the same offsets.

Example:
  memctl arena --budget 256 --sizes 10,20,30 --align 16
  memctl arena --sizes 1,1,1 --rounds 3 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArena()
		},
	}
}

type arenaAlloc struct {
	Round     int  `json:"round"`
	Size      int  `json:"size"`
	Offset    int  `json:"offset"`
	Exhausted bool `json:"exhausted,omitzero"`
}

type arenaReport struct {
	Allocations []arenaAlloc `json:"allocations"`
	Stats       arena.Stats  `json:"stats"`
	Backing     *alloc.Stats `json:"backing,omitzero"`
}

func runArena() error {
	a, err := newAllocator()
	if err != nil {
		return err
	}
	ar, err := arena.New(arenaBudget, a)
	if err != nil {
		return errors.Wrap(err, "create arena")
	}

	var rep arenaReport
	for round := range max(arenaRounds, 1) {
		if round > 0 {
			ar.Reset()
		}
		for _, size := range arenaSizes {
			row := arenaAlloc{Round: round, Size: size, Offset: -1}
			if _, err := ar.Alloc(size, arenaAlign); err != nil {
				if !errors.Is(err, alloc.ErrExhausted) {
					return err
				}
				row.Exhausted = true
			} else {
				row.Offset = ar.Stats().Used - size
			}
			rep.Allocations = append(rep.Allocations, row)
		}
	}
	rep.Stats = ar.Stats()
	if err := ar.Free(); err != nil {
		return err
	}
	rep.Backing = trackerStats(a)

	if jsonOut {
		return printJSON(rep)
	}

	for _, row := range rep.Allocations {
		if row.Exhausted {
			printInfo("round %d  size %6d  exhausted\n", row.Round, row.Size)
			continue
		}
		printInfo("round %d  size %6d  offset %6d\n", row.Round, row.Size, row.Offset)
	}
	printInfo("\ncapacity %d  used %d  remaining %d  peak %d\n",
		rep.Stats.Capacity, rep.Stats.Used, rep.Stats.Remaining, rep.Stats.Peak)
	if rep.Backing != nil {
		printVerbose("backing: %d allocs, %d frees, %d live bytes\n",
			rep.Backing.Allocs, rep.Backing.Frees, rep.Backing.Live)
	}
	return nil
}
