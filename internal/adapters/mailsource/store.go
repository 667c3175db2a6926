package mailsource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/mail"
	"net/textproto"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mikey/rfq-workflow/internal/core"
	"github.com/mikey/rfq-workflow/internal/ports"
	"go.uber.org/zap"
)

// Store is a mail source backed by a directory tree of RFC 5322 files laid
// out as <root>/<account>/<folder...>/*.eml
type Store struct {
	root   string
	logger *zap.Logger
}

// NewStore creates a new file-backed mail source
func NewStore(root string, logger *zap.Logger) *Store {
	return &Store{root: root, logger: logger}
}

// OpenFolder lists the messages of a folder in file name order
func (s *Store) OpenFolder(ctx context.Context, account, folderPath string) (ports.Folder, error) {
	dir := filepath.Join(s.root, account, filepath.FromSlash(folderPath))

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open folder %s: %v", core.ErrSourceUnavailable, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", core.ErrSourceUnavailable, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list folder %s: %v", core.ErrSourceUnavailable, dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".eml") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)

	s.logger.Info("Opened mail folder",
		zap.String("account", account),
		zap.String("folder", folderPath),
		zap.Int("messages", len(files)))

	return &folder{name: folderPath, files: files}, nil
}

// folder iterates the files of one directory
type folder struct {
	name  string
	files []string
	pos   int
}

func (f *folder) Name() string { return f.name }

func (f *folder) Next(ctx context.Context) (core.RawItem, error) {
	if err := ctx.Err(); err != nil {
		return core.RawItem{}, err
	}
	if f.pos >= len(f.files) {
		return core.RawItem{}, io.EOF
	}
	path := f.files[f.pos]
	f.pos++

	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	data, err := os.ReadFile(path)
	if err != nil {
		return core.RawItem{}, &core.ItemReadError{ID: id, Err: err}
	}
	item, err := ParseMessage(bytes.NewReader(data))
	if err != nil {
		return core.RawItem{}, &core.ItemReadError{ID: id, Err: err}
	}
	if item.ID == "" {
		item.ID = id
	}
	return item, nil
}

func (f *folder) Close() error {
	f.files = nil
	return nil
}

// ParseMessage reads one RFC 5322 message into a RawItem. A missing or
// malformed Date leaves Timestamp zero with the raw header in RawDate. A body
// that cannot be decoded is reported in BodyFault; only unreadable headers
// fail the message.
func ParseMessage(r io.Reader) (core.RawItem, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return core.RawItem{}, fmt.Errorf("failed to parse message: %w", err)
	}

	item := core.RawItem{
		ID:      strings.Trim(strings.TrimSpace(msg.Header.Get("Message-Id")), "<>"),
		Subject: decodeHeader(msg.Header.Get("Subject")),
		RawDate: msg.Header.Get("Date"),
		To:      addressList(msg.Header.Get("To")),
		Cc:      addressList(msg.Header.Get("Cc")),
	}

	from := msg.Header.Get("From")
	parser := mail.AddressParser{WordDecoder: wordDecoder}
	if addr, err := parser.Parse(from); err == nil {
		item.SenderName = addr.Name
		item.SenderAddress = addr.Address
	} else {
		item.SenderAddress = decodeHeader(from)
	}

	if ts, err := mail.ParseDate(item.RawDate); err == nil {
		item.Timestamp = ts
	}

	body, attachments, err := extractContent(textproto.MIMEHeader(msg.Header), msg.Body)
	if err != nil {
		item.BodyFault = err.Error()
	}
	item.Body = body
	item.Attachments = attachments
	return item, nil
}

func addressList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parser := mail.AddressParser{WordDecoder: wordDecoder}
	list, err := parser.ParseList(v)
	if err != nil {
		var out []string
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(decodeHeader(part)); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.Address)
	}
	return out
}
