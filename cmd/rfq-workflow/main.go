package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/rfq-workflow/internal/core"
	"github.com/mikey/rfq-workflow/internal/di"
	"github.com/mikey/rfq-workflow/internal/workflow"
	"go.uber.org/zap"
)

func main() {
	flags, err := di.ParseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	// Build the dependency injection container
	container, err := di.BuildContainer(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		if errors.Is(err, core.ErrSourceUnavailable) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	orchestrator *workflow.Orchestrator,
	opts workflow.Options,
	res *di.Resources,
) error {
	defer logger.Sync()
	defer res.Close(logger)

	// Cancel the run on SIGINT or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := orchestrator.Run(ctx, opts)
	if err != nil {
		return err
	}

	fmt.Print(workflow.Summary(report))
	switch report.State.Phase {
	case core.PhaseAwaitingReview:
		fmt.Println("Review the admitted records, then rerun with -skip-extraction to continue.")
	case core.PhaseAborted:
		fmt.Println("Processing stopped at the checkpoint.")
	}

	logger.Info("Workflow finished",
		zap.String("run_id", report.State.RunID),
		zap.String("phase", string(report.State.Phase)))
	return nil
}
