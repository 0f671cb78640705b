package main

import (
	"fmt"
	"strconv"

	"github.com/googlestaging/lpmatch/suffixtree"
	"github.com/urfave/cli/v2"
)

var maxSizeFlag = &cli.Int64Flag{
	Name:    "max-size",
	Usage:   "refuse inputs larger than this many bytes; a tree costs about 2KiB per input byte",
	Value:   1 << 20,
	EnvVars: []string{"LPMATCH_MAX_SIZE"},
}

var cmdQuery = &cli.Command{
	Name:      "query",
	Usage:     "print the longest earlier repeat of the given offsets",
	ArgsUsage: "<file> <offset>...",
	Flags:     []cli.Flag{maxSizeFlag},
	Action: func(cctx *cli.Context) error {
		_, data, err := readInput(cctx, cctx.Int64("max-size"))
		if err != nil {
			return err
		}
		if cctx.Args().Len() < 2 {
			return fmt.Errorf("expected at least one offset")
		}
		tree := suffixtree.New()
		if err := tree.Build(data); err != nil {
			return err
		}
		out := cctx.App.Writer
		for _, arg := range cctx.Args().Slice()[1:] {
			index, err := strconv.ParseInt(arg, 0, 64)
			if err != nil {
				return fmt.Errorf("invalid offset %q: %w", arg, err)
			}
			m, err := tree.LongestPreviousMatch(int(index))
			if err != nil {
				return err
			}
			if m.Length == 0 {
				fmt.Fprintf(out, "%08x: no earlier occurrence\n", index)
				continue
			}
			fmt.Fprintf(out, "%08x: %d bytes from %08x (back %d)\n", index, m.Length, m.Start, m.Distance(int(index)))
		}
		return nil
	},
}

var cmdDump = &cli.Command{
	Name:      "dump",
	Usage:     "print the suffix tree of a small file",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		&cli.Int64Flag{
			Name:  "max-size",
			Usage: "refuse inputs larger than this many bytes",
			Value: 4 << 10,
		},
	},
	Action: func(cctx *cli.Context) error {
		_, data, err := readInput(cctx, cctx.Int64("max-size"))
		if err != nil {
			return err
		}
		tree := suffixtree.New()
		if err := tree.Build(data); err != nil {
			return err
		}
		return tree.Dump(cctx.App.Writer)
	},
}
