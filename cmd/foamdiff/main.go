// Command foamdiff writes the difference between two OpenFOAM field files
// next to the first one.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/notargets/foamcase/field"
	"github.com/notargets/foamcase/foamfile"
	"github.com/notargets/foamcase/logging"
	"github.com/rs/zerolog/log"
)

type cliOptions struct {
	percentage   bool
	headerWindow int
	skipLines    int
	logLevel     int
	logPath      string
	jsonLog      bool
}

func getOptions() cliOptions {
	result := cliOptions{}
	flag.BoolVar(&result.percentage, "p", false, "percentage difference 100*(file2-file1)/file1 instead of file2-file1")
	flag.IntVar(&result.headerWindow, "header-window", foamfile.DefaultOptions.HeaderWindow, "lines searched for the format declaration")
	flag.IntVar(&result.skipLines, "skip", foamfile.DefaultOptions.SkipLines, "header lines skipped when a file has no FoamFile block")
	flag.IntVar(&result.logLevel, "log-level", logging.DefaultLogConfig.Level, "log level: -1-trace 0-debug 1-info 2-warn 3-error")
	flag.StringVar(&result.logPath, "log", logging.DefaultLogConfig.Path, "log file, or stdout/stderr")
	flag.BoolVar(&result.jsonLog, "json-log", false, "log JSON lines instead of console text")
	flag.Parse()
	return result
}

func main() {
	options := getOptions()
	if flag.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s [options] file1 file2\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "\nWrites <dir of file1>/<name of file2>_diff.\n\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := logging.InitLogger(logging.LogConfig{
		Level:   options.logLevel,
		Path:    options.logPath,
		Console: !options.jsonLog,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Cannot set up logging: %s.\n", err.Error())
		os.Exit(1)
	}

	out, err := field.DiffFiles(flag.Arg(0), flag.Arg(1), options.percentage,
		foamfile.WithHeaderWindow(options.headerWindow),
		foamfile.WithSkipLines(options.skipLines))
	if err != nil {
		log.Error().Err(err).Msg("diff failed")
		os.Exit(1)
	}
	fmt.Fprintln(os.Stdout, out)
}
