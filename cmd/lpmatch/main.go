// Binary lpmatch reports repeated byte runs in binary files, such as ROM
// images, using suffix trees.
//
//	lpmatch scan --min-length 4 game.sfc
//	lpmatch query game.sfc 0x8000 0x8010
//	lpmatch dump small.bin
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/carlmjohnson/versioninfo"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	app := cli.App{
		Name:      "lpmatch",
		Usage:     "find the longest earlier repeat of every position in a file",
		Version:   versioninfo.Short(),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log verbosity: debug, info, warn or error",
				Value:   "info",
				EnvVars: []string{"LPMATCH_LOG_LEVEL", "LOG_LEVEL"},
			},
		},
		Before: configureLogging,
	}
	app.Commands = []*cli.Command{
		cmdScan,
		cmdQuery,
		cmdDump,
	}
	return app.Run(args)
}

func configureLogging(cctx *cli.Context) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cctx.String("log-level"))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", cctx.String("log-level"), err)
	}
	logger := slog.New(slog.NewTextHandler(cctx.App.ErrWriter, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// readInput loads the file named by the command's first argument, refusing
// files larger than maxSize when maxSize is positive.
func readInput(cctx *cli.Context, maxSize int64) (string, []byte, error) {
	if cctx.Args().Len() < 1 {
		return "", nil, fmt.Errorf("expected a file argument")
	}
	path := cctx.Args().First()
	if maxSize > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return "", nil, err
		}
		if info.Size() > maxSize {
			return "", nil, fmt.Errorf("%s is %d bytes, more than --max-size %d", path, info.Size(), maxSize)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("reading input: %w", err)
	}
	return path, data, nil
}
