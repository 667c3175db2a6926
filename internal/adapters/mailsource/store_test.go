package mailsource

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/mikey/rfq-workflow/internal/core"
	"go.uber.org/zap"
)

const plainMessage = "From: =?windows-1252?Q?Jos=E9_P=E9rez?= <jose@acme.cl>\r\n" +
	"To: ventas@example.com, compras@example.com\r\n" +
	"Subject: =?windows-1252?Q?Cotizaci=F3n_v=E1lvulas?=\r\n" +
	"Date: Mon, 15 Jan 2024 10:30:00 -0300\r\n" +
	"Message-ID: <abc123@acme.cl>\r\n" +
	"Content-Type: text/plain; charset=windows-1252\r\n" +
	"Content-Transfer-Encoding: quoted-printable\r\n" +
	"\r\n" +
	"Necesitamos cotizaci=F3n de 10 v=E1lvulas.\r\n"

const multipartMessage = "From: buyer@minera.pe\r\n" +
	"To: ventas@example.com\r\n" +
	"Subject: RFQ pumps\r\n" +
	"Date: Tue, 16 Jan 2024 09:00:00 +0000\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=outer\r\n" +
	"\r\n" +
	"--outer\r\n" +
	"Content-Type: multipart/alternative; boundary=inner\r\n" +
	"\r\n" +
	"--inner\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"UGxlYXNlIHF1b3RlIDIgcHVtcHMu\r\n" +
	"--inner\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>Please quote 2 pumps.</p>\r\n" +
	"--inner--\r\n" +
	"--outer\r\n" +
	"Content-Type: application/pdf; name=\"specs.pdf\"\r\n" +
	"Content-Disposition: attachment; filename=\"specs.pdf\"\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"JVBERi0xLjQK\r\n" +
	"--outer--\r\n"

const htmlMessage = "From: Ana <ana@planta.es>\r\n" +
	"Subject: Consulta\r\n" +
	"Date: Wed, 17 Jan 2024 12:00:00 +0100\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<html><head><style>p{color:red}</style></head><body><p>Solicitamos precio de sensores de nivel.</p></body></html>\r\n"

const undatedMessage = "From: someone@example.org\r\n" +
	"Subject: Quote request\r\n" +
	"Date: sometime last week\r\n" +
	"\r\n" +
	"Please send a quote.\r\n"

func writeFolder(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "sales", "INBOX", "RFQ")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create folder: %v", err)
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return root
}

func TestParseMessagePlainWithCharset(t *testing.T) {
	item, err := ParseMessage(strings.NewReader(plainMessage))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := core.RawItem{
		ID:            "abc123@acme.cl",
		SenderName:    "José Pérez",
		SenderAddress: "jose@acme.cl",
		Subject:       "Cotización válvulas",
		RawDate:       "Mon, 15 Jan 2024 10:30:00 -0300",
		To:            []string{"ventas@example.com", "compras@example.com"},
	}
	if diff := cmp.Diff(want, item, cmpopts.IgnoreFields(core.RawItem{}, "Timestamp", "Body")); diff != "" {
		t.Errorf("item mismatch (-want +got):\n%s", diff)
	}
	if strings.TrimSpace(item.Body) != "Necesitamos cotización de 10 válvulas." {
		t.Errorf("unexpected body %q", item.Body)
	}
	if !item.Timestamp.Equal(time.Date(2024, 1, 15, 13, 30, 0, 0, time.UTC)) {
		t.Errorf("unexpected timestamp %v", item.Timestamp)
	}
}

func TestParseMessageMultipart(t *testing.T) {
	item, err := ParseMessage(strings.NewReader(multipartMessage))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(item.Body) != "Please quote 2 pumps." {
		t.Errorf("expected plain part, got %q", item.Body)
	}
	if diff := cmp.Diff([]string{"specs.pdf"}, item.Attachments); diff != "" {
		t.Errorf("attachments mismatch (-want +got):\n%s", diff)
	}
	if item.SenderName != "" || item.SenderAddress != "buyer@minera.pe" {
		t.Errorf("unexpected sender %q <%s>", item.SenderName, item.SenderAddress)
	}
}

func TestParseMessageHTMLOnly(t *testing.T) {
	item, err := ParseMessage(strings.NewReader(htmlMessage))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(item.Body, "Solicitamos precio de sensores de nivel.") {
		t.Errorf("expected html text, got %q", item.Body)
	}
	if strings.Contains(item.Body, "<p>") || strings.Contains(item.Body, "color:red") {
		t.Errorf("markup left in body: %q", item.Body)
	}
}

func TestParseMessageUnreadableDate(t *testing.T) {
	item, err := ParseMessage(strings.NewReader(undatedMessage))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !item.Timestamp.IsZero() {
		t.Errorf("expected zero timestamp, got %v", item.Timestamp)
	}
	if item.RawDate != "sometime last week" {
		t.Errorf("expected raw date kept, got %q", item.RawDate)
	}
}

const brokenBodyMessage = "From: Auto <noreply@plant.es>\r\n" +
	"To: ventas@example.com\r\n" +
	"Subject: Automatic reply: out of office\r\n" +
	"Date: Wed, 17 Jan 2024 08:00:00 +0000\r\n" +
	"Message-ID: <auto-1@plant.es>\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"!!!not-base64!!!\r\n"

func TestParseMessageKeepsHeadersWhenBodyIsBroken(t *testing.T) {
	item, err := ParseMessage(strings.NewReader(brokenBodyMessage))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Subject != "Automatic reply: out of office" || item.SenderAddress != "noreply@plant.es" || item.ID != "auto-1@plant.es" {
		t.Errorf("headers not kept: %+v", item)
	}
	if item.Timestamp.IsZero() {
		t.Error("timestamp not parsed")
	}
	if !strings.Contains(item.BodyFault, "base64") {
		t.Errorf("expected a base64 body fault, got %q", item.BodyFault)
	}
}

func TestStoreReturnsItemWithBrokenBody(t *testing.T) {
	root := writeFolder(t, map[string]string{"001.eml": brokenBodyMessage})
	f, err := NewStore(root, zap.NewNop()).OpenFolder(context.Background(), "sales", "INBOX/RFQ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()

	item, err := f.Next(context.Background())
	if err != nil {
		t.Fatalf("expected the item, got %v", err)
	}
	if item.BodyFault == "" || item.Subject == "" {
		t.Errorf("unexpected item %+v", item)
	}
}

func TestStoreIteratesFolderInOrder(t *testing.T) {
	root := writeFolder(t, map[string]string{
		"002.eml":   multipartMessage,
		"001.eml":   plainMessage,
		"003.eml":   "this is not a message\r\n",
		"notes.txt": "ignored",
	})
	store := NewStore(root, zap.NewNop())

	f, err := store.OpenFolder(context.Background(), "sales", "INBOX/RFQ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()

	if f.Name() != "INBOX/RFQ" {
		t.Errorf("unexpected folder name %q", f.Name())
	}

	first, err := f.Next(context.Background())
	if err != nil || first.ID != "abc123@acme.cl" {
		t.Fatalf("expected first message, got %+v (%v)", first, err)
	}
	second, err := f.Next(context.Background())
	if err != nil || second.ID != "002" {
		t.Fatalf("expected file name as id, got %q (%v)", second.ID, err)
	}

	_, err = f.Next(context.Background())
	var readErr *core.ItemReadError
	if !errors.As(err, &readErr) || readErr.ID != "003" {
		t.Fatalf("expected item read error for 003, got %v", err)
	}

	if _, err := f.Next(context.Background()); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestStoreMissingFolder(t *testing.T) {
	store := NewStore(t.TempDir(), zap.NewNop())
	_, err := store.OpenFolder(context.Background(), "sales", "INBOX")
	if !errors.Is(err, core.ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestFolderStopsOnCancelledContext(t *testing.T) {
	root := writeFolder(t, map[string]string{"001.eml": plainMessage})
	f, err := NewStore(root, zap.NewNop()).OpenFolder(context.Background(), "sales", "INBOX/RFQ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
