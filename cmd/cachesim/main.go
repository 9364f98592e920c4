// Command cachesim drives a cycle-accurate simulation of a four-core
// snooping-bus cache-coherence subsystem from per-core memory-reference
// traces, and prints a final timing/traffic report to stdout.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli"

	cachesim "github.com/user-none/go-cachesim"
)

func main() {
	app := cli.NewApp()
	app.Name = "cachesim"
	app.Usage = "simulate L1 cache coherence across four cores"
	app.UsageText = "cachesim [options] <protocol> <input_file_base> [cache_size_bytes [associativity [block_size_bytes]]]"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Usage: "YAML file overriding the default timing constants",
		},
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "raise logging verbosity to INFO",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.NewExitError("usage: "+c.App.UsageText, 1)
	}

	protocolName := c.Args().Get(0)
	base := c.Args().Get(1)

	sizeBytes, err := parseOptionalUint(c.Args().Get(2), 4096)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	associativity, err := parseOptionalUint(c.Args().Get(3), 2)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	blockSizeBytes, err := parseOptionalUint(c.Args().Get(4), 32)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	verbosity := 0
	if c.Bool("verbose") {
		verbosity = 1
	}
	logger := cachesim.NewLogger(verbosity)

	timing := cachesim.DefaultTiming()
	if cfgPath := c.String("config"); cfgPath != "" {
		timing, err = cachesim.LoadTiming(cfgPath)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
	}

	geometry, err := cachesim.NewGeometry(sizeBytes, associativity, blockSizeBytes)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	protocol, err := cachesim.NewProtocol(protocolName)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	var traces [cachesim.NumCores]cachesim.InstructionSource
	for i := 0; i < cachesim.NumCores; i++ {
		path := cachesim.TracePath(base, i)
		tr, err := cachesim.OpenTrace(path)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer tr.Close()
		traces[i] = tr
	}

	sim := cachesim.NewSimulation(geometry, timing, protocol, traces, logger)
	report, err := runSimulation(sim)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	if err := cachesim.WriteReport(os.Stdout, report); err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}

// runSimulation recovers the *cachesim.TraceParseError panic a malformed
// trace line raises (fatal, never silently skipped) and surfaces it as a
// returned error instead of crashing the process. Any other panic (an
// invariant violation) is left to propagate and crash — it is a
// programming error, not a reportable run outcome.
func runSimulation(sim *cachesim.Simulation) (report cachesim.Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			if tpe, ok := r.(*cachesim.TraceParseError); ok {
				err = tpe
				return
			}
			panic(r)
		}
	}()
	report = sim.Run()
	return report, nil
}

func parseOptionalUint(tok string, def uint64) (uint64, error) {
	if tok == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(tok, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric argument %q: %w", tok, err)
	}
	return v, nil
}
