package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mikey/rfq-workflow/internal/adapters/mailsource"
	"github.com/mikey/rfq-workflow/internal/core"
	"github.com/mikey/rfq-workflow/internal/di"
	"github.com/mikey/rfq-workflow/internal/extraction"
	"github.com/mikey/rfq-workflow/internal/workflow"
	"go.uber.org/zap"
)

func main() {
	flags, err := di.ParseCLIFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(
	flags *di.CLIFlags,
	logger *zap.Logger,
	classifier *extraction.Classifier,
	enricher workflow.Enricher,
	res *di.Resources,
) error {
	defer logger.Sync()
	defer res.Close(logger)

	// Read message from file or stdin
	var reader io.Reader
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		reader = file
		logger.Info("Reading message from file", zap.String("file", flags.InputFile))
	} else {
		reader = os.Stdin
		logger.Info("Reading message from stdin")
	}

	item, err := mailsource.ParseMessage(reader)
	if err != nil {
		return fmt.Errorf("failed to parse message: %w", err)
	}

	// Print message summary
	fmt.Printf("\n=== Message Summary ===\n")
	fmt.Printf("From: %s <%s>\n", item.SenderName, item.SenderAddress)
	fmt.Printf("Subject: %s\n", item.Subject)
	fmt.Printf("Date: %s\n", item.RawDate)
	fmt.Printf("Body length: %d bytes\n", len(item.Body))
	if len(item.Attachments) > 0 {
		fmt.Printf("Attachments: %v\n", item.Attachments)
	}

	rec := classifier.Classify(item)

	fmt.Printf("\n=== Classification ===\n")
	fmt.Printf("Outcome: %s\n", rec.Outcome)
	switch rec.Outcome {
	case core.OutcomeAdmitted:
		fmt.Printf("Location: %s\n", rec.Location)
	case core.OutcomeExcluded:
		fmt.Printf("Reason: %s\n", rec.ExclusionReason)
	case core.OutcomeErrored:
		fmt.Printf("Error: %s\n", rec.ErrorDetail)
	}

	if enricher == nil || rec.Outcome != core.OutcomeAdmitted {
		return nil
	}

	startTime := time.Now()
	enriched, failures := enricher.EnrichAll(context.Background(), []core.ExtractionRecord{rec})
	duration := time.Since(startTime)

	fmt.Printf("\n=== Enrichment ===\n")
	for _, f := range failures {
		fmt.Printf("Failed after %d attempts (%s): %s\n", f.Attempts, f.Kind, f.Detail)
	}
	for _, e := range enriched {
		fmt.Printf("Company: %s\n", e.CompanyName)
		fmt.Printf("Website: %s\n", e.CompanyWebsite)
		fmt.Printf("Country: %s\n", e.CompanyCountry)
		fmt.Printf("Category: %s\n", e.EmailCategory)
		fmt.Printf("Product category: %s\n", e.ProductCategory)
		fmt.Printf("Equipment: %s\n", e.EquipmentRequested)
		fmt.Printf("Specifications: %s\n", e.TechnicalSpecifications)
		fmt.Printf("Subject matches body: %t\n", e.SubjectBodyConsistent)
		if e.CorrelationNote != "" {
			fmt.Printf("Note: %s\n", e.CorrelationNote)
		}
		fmt.Printf("Model used: %s\n", e.Model)
	}
	fmt.Printf("Processing time: %v\n", duration)
	return nil
}
