package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orderpulse/internal/app"
	"orderpulse/internal/operations"
	"orderpulse/pkg/contracts"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run parses args, executes the requested step and returns the exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("processor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", "", "YAML configuration file (defaults to orderpulse.yaml or configs/orderpulse.yaml)")
	step := fs.String("step", operations.StepAll, "step to run: clean, analytics, summary or all")
	root := fs.String("root", "", "project root that relative paths resolve against")
	showVersion := fs.Bool("version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return 0
	}

	switch *step {
	case operations.StepIDClean, operations.StepIDAnalytics, operations.StepIDSummary, operations.StepAll:
	default:
		fmt.Fprintf(stderr, "unknown step %q: want clean, analytics, summary or all\n", *step)
		return 2
	}

	a, err := app.NewApplication(app.Options{ConfigFile: *configFile, BaseDir: *root})
	if err != nil {
		fmt.Fprintf(stderr, "startup failed: %v\n", err)
		return 1
	}

	resp, runErr := a.Run(ctx, *step)
	stopErr := a.Stop(context.Background())

	if runErr != nil {
		fmt.Fprintf(stderr, "run %s failed: %v\n", resp.ID, runErr)
		return 1
	}
	if stopErr != nil {
		fmt.Fprintf(stderr, "shutdown: %v\n", stopErr)
	}

	fmt.Fprintf(stdout, "run %s %s in %s\n", resp.ID, resp.Status, resp.Duration.Round(time.Millisecond))
	for _, id := range a.Registry.ListIDs() {
		if st, ok := resp.Steps[id]; ok {
			fmt.Fprintf(stdout, "  %-10s %s\n", id, st.GetStatus())
		}
	}
	return 0
}
