package main

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/mem/alloc"
	"github.com/joshuapare/memkit/mem/strtable"
)

var (
	strCapacity int
	strFoldCase bool
	strNFC      bool
)

func init() {
	cmd := newStrTableCmd()
	cmd.Flags().IntVar(&strCapacity, "capacity", 64, "Bin count")
	cmd.Flags().BoolVar(&strFoldCase, "fold-case", false, "Case-insensitive keys")
	cmd.Flags().BoolVar(&strNFC, "nfc", false, "Normalize keys to Unicode NFC")
	rootCmd.AddCommand(cmd)
}

func newStrTableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strtable <key>...",
		Short: "Insert keys into a string hash table",
		Long: `The strtable command inserts each argument as a key (value = argument
position) and reports how many keys fit inline and how many needed an overflow
buffer. Duplicate keys, after normalization, overwrite.

Example:
  memctl strtable textures/a.ktx2 textures/b.ktx2
  memctl strtable --fold-case Mesh MESH mesh --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStrTable(args)
		},
	}
}

type strEntry struct {
	Key   string `json:"key"`
	Value int    `json:"value"`
}

type strTableReport struct {
	Entries []strEntry     `json:"entries"`
	Full    []string       `json:"full,omitzero"`
	Stats   strtable.Stats `json:"stats"`
	Backing *alloc.Stats   `json:"backing,omitzero"`
}

func runStrTable(args []string) error {
	a, err := newAllocator()
	if err != nil {
		return err
	}
	var opts []strtable.Option
	if strFoldCase {
		opts = append(opts, strtable.FoldCase())
	}
	if strNFC {
		opts = append(opts, strtable.NFC())
	}
	tbl, err := strtable.New[uint32](a, strCapacity, opts...)
	if err != nil {
		return errors.Wrap(err, "create table")
	}

	var rep strTableReport
	for i, key := range args {
		if err := tbl.Set(key, uint32(i)); err != nil {
			if !errors.Is(err, strtable.ErrFull) {
				return err
			}
			rep.Full = append(rep.Full, key)
			continue
		}
		printVerbose("set %q = %d\n", key, i)
	}

	tbl.Each(func(k string, v uint32) bool {
		rep.Entries = append(rep.Entries, strEntry{Key: k, Value: int(v)})
		return true
	})
	rep.Stats = tbl.Stats()
	if err := tbl.Free(); err != nil {
		return err
	}
	rep.Backing = trackerStats(a)

	if jsonOut {
		return printJSON(rep)
	}
	for _, e := range rep.Entries {
		printInfo("%-50q %d\n", e.Key, e.Value)
	}
	for _, k := range rep.Full {
		printInfo("%-50q full\n", k)
	}
	printInfo("\n%d keys: %d inline, %d overflow (%d bytes), longest chain %d\n",
		rep.Stats.Used, rep.Stats.Inline, rep.Stats.Overflow, rep.Stats.OverflowBytes, rep.Stats.MaxChain)
	return nil
}
