package ports

import (
	"context"
)

// Channel names a persisted output record set
type Channel string

const (
	ChannelAdmitted         Channel = "admitted"
	ChannelExcluded         Channel = "excluded"
	ChannelErrors           Channel = "errors"
	ChannelProcessed        Channel = "processed"
	ChannelEnrichmentErrors Channel = "enrichment_errors"
)

// Table is a record set flattened to a fixed column schema
type Table struct {
	Columns []string
	Rows    [][]string
}

// Sink defines the interface for persisting output record sets
type Sink interface {
	// Write persists the table to the destination of the channel and returns its location
	Write(ctx context.Context, channel Channel, table Table) (string, error)
}
