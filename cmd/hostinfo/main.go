// Package main implements hostinfo, a small inspector for the processor
// and sensor details a stress run is sized from.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"cpu-estressador/internal/cpuinfo"
	"cpu-estressador/pkg/monitor"
)

const defaultTimeout = 5 * time.Second

func main() {
	code := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	if code != 0 {
		exitProcess(code)
	}
}

var exitProcess = os.Exit //nolint:gochecknoglobals // replaceable for tests

//nolint:gochecknoglobals // replaceable for tests
var (
	describeHost = cpuinfo.Describe
	maxHostTemp  = func(ctx context.Context) (float64, error) {
		return monitor.SensorSource{}.Max(ctx)
	}
)

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flagSet := flag.NewFlagSet("hostinfo", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	timeout := flagSet.Duration("timeout", defaultTimeout, "Host query timeout")

	err := flagSet.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "parse CLI arguments: %v\n", err)

		return 1
	}

	queryCtx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	host := describeHost(queryCtx)

	fmt.Fprintf(stdout, "CPUs logicos: %d\n", host.Logical)

	if host.Physical > 0 {
		fmt.Fprintf(stdout, "Nucleos fisicos: %d\n", host.Physical)
	}

	if host.ModelName != "" {
		fmt.Fprintf(stdout, "Processador: %s\n", host.ModelName)
	}

	if host.Mhz > 0 {
		fmt.Fprintf(stdout, "Frequencia: %.0f MHz\n", host.Mhz)
	}

	temperature, tempErr := maxHostTemp(queryCtx)
	if tempErr != nil {
		fmt.Fprint(stdout, "Temperatura: indisponivel\n")
	} else {
		fmt.Fprintf(stdout, "Temperatura maxima: %.1f C\n", temperature)
	}

	return 0
}
