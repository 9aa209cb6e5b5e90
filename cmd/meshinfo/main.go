// Command meshinfo loads the polyMesh of an OpenFOAM case, prints its
// topology summary and optionally decomposes it.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/notargets/foamcase/field"
	"github.com/notargets/foamcase/foamfile"
	"github.com/notargets/foamcase/logging"
	"github.com/notargets/foamcase/mesh"
	"github.com/notargets/foamcase/partitions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type cliOptions struct {
	polyMesh  bool
	numParts  int
	strategy  string
	alpha     string
	omega     float64
	skipLines int
	logLevel  int
	logPath   string
	jsonLog   bool
}

func getOptions() cliOptions {
	result := cliOptions{}
	flag.BoolVar(&result.polyMesh, "polymesh", false, "the argument is a polyMesh directory rather than a case directory")
	flag.IntVar(&result.numParts, "np", 0, "number of partitions to decompose into (0 skips decomposition)")
	flag.StringVar(&result.strategy, "strategy", partitions.GraphPartition.String(), "decomposition strategy: block, roundrobin or graph")
	flag.StringVar(&result.alpha, "alpha", "", "phase fraction field used to estimate the interface area")
	flag.Float64Var(&result.omega, "omega", mesh.DefaultSurfaceExponent, "exponent of the interface area estimate")
	flag.IntVar(&result.skipLines, "skip", foamfile.DefaultOptions.SkipLines, "header lines skipped when a file has no FoamFile block")
	flag.IntVar(&result.logLevel, "log-level", logging.DefaultLogConfig.Level, "log level: -1-trace 0-debug 1-info 2-warn 3-error")
	flag.StringVar(&result.logPath, "log", logging.DefaultLogConfig.Path, "log file, or stdout/stderr")
	flag.BoolVar(&result.jsonLog, "json-log", false, "log JSON lines instead of console text")
	flag.Parse()
	return result
}

func main() {
	options := getOptions()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [options] caseDir\n\nOptions:\n", filepath.Base(os.Args[0]))
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
	if err := run(options, flag.Arg(0)); err != nil {
		log.Error().Err(err).Msg("meshinfo failed")
		os.Exit(1)
	}
}

func run(options cliOptions, dir string) error {
	opts := []foamfile.Option{foamfile.WithSkipLines(options.skipLines)}

	var (
		m   *mesh.PolyMesh
		err error
	)
	if options.polyMesh {
		m, err = mesh.ReadPolyMesh(dir, opts...)
	} else {
		m, err = mesh.ReadCase(dir, opts...)
	}
	if err != nil {
		return err
	}
	fmt.Print(m.String())

	if options.alpha != "" {
		area, err := interfaceArea(m, options.alpha, options.omega, opts)
		if err != nil {
			return err
		}
		fmt.Printf("Interface area (omega %g): %g\n", options.omega, area)
	}

	if options.numParts <= 0 {
		return nil
	}
	strategy, err := partitions.ParseStrategy(options.strategy)
	if err != nil {
		return err
	}
	d, err := partitions.Decompose(m, options.numParts, strategy)
	if err != nil {
		return errors.Wrap(err, "decomposition failed")
	}
	fmt.Printf("\nDecomposition (%s): %s\n", strategy, d.Layout.PartitionStatistics())
	for _, p := range d.Processors {
		fmt.Printf("  proc%dto%d: %d faces\n", p.Partitions[0], p.Partitions[1], len(p.Faces))
	}
	return nil
}

func interfaceArea(m *mesh.PolyMesh, path string, omega float64, opts []foamfile.Option) (float64, error) {
	in, err := field.ReadInternalField(path, opts...)
	if err != nil {
		return 0, err
	}
	var phi []float64
	switch in.Form {
	case foamfile.Uniform:
		phi = make([]float64, m.NumCells)
		for i := range phi {
			phi[i] = in.Uniform.Scalar()
		}
	case foamfile.Nonuniform:
		if in.Values.Kind != foamfile.Scalar {
			return 0, errors.Errorf("%s: phase fraction must be a scalar field, got %s", path, in.Values.Kind)
		}
		phi = in.Values.Data
	default:
		return 0, errors.Errorf("%s: no internalField", path)
	}
	return m.PhaseSurfaceArea(phi, nil, omega)
}
