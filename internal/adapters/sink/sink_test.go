package sink

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/go-cmp/cmp"
	"github.com/mikey/rfq-workflow/internal/ports"
	"go.uber.org/zap"
)

var sampleTable = ports.Table{
	Columns: []string{"index", "id", "subject"},
	Rows: [][]string{
		{"0", "m1", "Cotización, válvulas"},
		{"1", "m2", "line one\nline two"},
	},
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return rows
}

func TestCSVSinkFileNames(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVSink(filepath.Join(dir, "out"), "rfq", zap.NewNop())

	tests := []struct {
		channel ports.Channel
		want    string
	}{
		{ports.ChannelAdmitted, "rfq.csv"},
		{ports.ChannelExcluded, "rfq_excluded.csv"},
		{ports.ChannelErrors, "rfq_errors.csv"},
		{ports.ChannelProcessed, "rfq_processed.csv"},
		{ports.ChannelEnrichmentErrors, "rfq_enrichment_errors.csv"},
	}
	for _, tt := range tests {
		loc, err := s.Write(context.Background(), tt.channel, sampleTable)
		if err != nil {
			t.Fatalf("write %s failed: %v", tt.channel, err)
		}
		if filepath.Base(loc) != tt.want {
			t.Errorf("channel %s: expected %s, got %s", tt.channel, tt.want, loc)
		}
	}
}

func TestCSVSinkRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVSink(dir, "", zap.NewNop())

	loc, err := s.Write(context.Background(), ports.ChannelAdmitted, sampleTable)
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if loc != filepath.Join(dir, "emails.csv") {
		t.Errorf("unexpected location %s", loc)
	}

	want := append([][]string{sampleTable.Columns}, sampleTable.Rows...)
	if diff := cmp.Diff(want, readCSV(t, loc)); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}

	// rewriting replaces the file
	if _, err := s.Write(context.Background(), ports.ChannelAdmitted, ports.Table{Columns: sampleTable.Columns}); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}
	if rows := readCSV(t, loc); len(rows) != 1 {
		t.Errorf("expected header only after rewrite, got %d rows", len(rows))
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected no temp files left, got %d entries", len(entries))
	}
}

type fakePutter struct {
	keys   []string
	bodies []string
	err    error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.keys = append(f.keys, *in.Key)
	f.bodies = append(f.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func TestS3MirrorUploadsWrittenFile(t *testing.T) {
	dir := t.TempDir()
	putter := &fakePutter{}
	m := NewS3Mirror(NewCSVSink(dir, "emails", zap.NewNop()), putter, "bucket", "rfq", "run-1", zap.NewNop())

	loc, err := m.Write(context.Background(), ports.ChannelExcluded, sampleTable)
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if loc != filepath.Join(dir, "emails_excluded.csv") {
		t.Errorf("expected local location, got %s", loc)
	}
	if diff := cmp.Diff([]string{"rfq/run-1/emails_excluded.csv"}, putter.keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	local, _ := os.ReadFile(loc)
	if putter.bodies[0] != string(local) {
		t.Errorf("uploaded body differs from local file")
	}
}

func TestS3MirrorKeepsLocalOnUploadFailure(t *testing.T) {
	dir := t.TempDir()
	m := NewS3Mirror(NewCSVSink(dir, "emails", zap.NewNop()), &fakePutter{err: errors.New("denied")}, "bucket", "", "run-1", zap.NewNop())

	loc, err := m.Write(context.Background(), ports.ChannelErrors, sampleTable)
	if err != nil {
		t.Fatalf("expected upload failure to be tolerated, got %v", err)
	}
	if _, err := os.Stat(loc); err != nil {
		t.Errorf("local file missing: %v", err)
	}
}

func producerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	return cfg
}

func TestKafkaSinkPublishesRows(t *testing.T) {
	producer := mocks.NewSyncProducer(t, producerConfig())
	var got []map[string]string
	for range sampleTable.Rows {
		producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
			var obj map[string]string
			if err := json.Unmarshal(val, &obj); err != nil {
				return err
			}
			got = append(got, obj)
			return nil
		})
	}

	k := NewKafkaSink(producer, "rfq", zap.NewNop())
	loc, err := k.Write(context.Background(), ports.ChannelProcessed, sampleTable)
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if loc != "kafka://rfq.processed" {
		t.Errorf("unexpected location %s", loc)
	}
	want := []map[string]string{
		{"index": "0", "id": "m1", "subject": "Cotización, válvulas"},
		{"index": "1", "id": "m2", "subject": "line one\nline two"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
	if err := k.Close(); err != nil {
		t.Errorf("close failed: %v", err)
	}
}

func TestKafkaSinkSkipsEmptyTable(t *testing.T) {
	producer := mocks.NewSyncProducer(t, producerConfig())
	k := NewKafkaSink(producer, "", zap.NewNop())
	loc, err := k.Write(context.Background(), ports.ChannelExcluded, ports.Table{Columns: []string{"id"}})
	if err != nil || loc != "kafka://excluded" {
		t.Errorf("unexpected result %q, %v", loc, err)
	}
	_ = k.Close()
}
