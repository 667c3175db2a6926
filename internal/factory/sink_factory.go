package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/mikey/rfq-workflow/internal/adapters/sink"
	"github.com/mikey/rfq-workflow/internal/config"
	"github.com/mikey/rfq-workflow/internal/ports"
	"go.uber.org/zap"
)

// SinkFactory creates the output sink based on configuration
type SinkFactory struct {
	cfg    config.OutputConfig
	now    func() time.Time
	logger *zap.Logger
}

// NewSinkFactory creates a new sink factory
func NewSinkFactory(settings *config.Settings, logger *zap.Logger) *SinkFactory {
	return &SinkFactory{
		cfg:    settings.Output,
		now:    time.Now,
		logger: logger,
	}
}

// CreateSink creates the configured sink. CSV output is mirrored to S3 when
// a bucket is enabled.
func (f *SinkFactory) CreateSink(ctx context.Context) (ports.Sink, error) {
	switch f.cfg.Type {
	case "csv":
		csvSink := sink.NewCSVSink(f.cfg.Dir, f.cfg.Basename, f.logger)
		if !f.cfg.S3.Enabled {
			return csvSink, nil
		}
		client, err := sink.NewS3Client(ctx, f.cfg.S3)
		if err != nil {
			return nil, err
		}
		stamp := f.now().UTC().Format("20060102T150405Z")
		f.logger.Info("Mirroring output to S3",
			zap.String("bucket", f.cfg.S3.Bucket),
			zap.String("prefix", f.cfg.S3.Prefix),
			zap.String("stamp", stamp))
		return sink.NewS3Mirror(csvSink, client, f.cfg.S3.Bucket, f.cfg.S3.Prefix, stamp, f.logger), nil
	case "kafka":
		if f.cfg.S3.Enabled {
			f.logger.Warn("S3 mirror only applies to CSV output, ignoring")
		}
		producer, err := sink.NewKafkaProducer(f.cfg.Kafka.Brokers)
		if err != nil {
			return nil, err
		}
		return sink.NewKafkaSink(producer, f.cfg.Kafka.TopicPrefix, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported output type: %s", f.cfg.Type)
	}
}
