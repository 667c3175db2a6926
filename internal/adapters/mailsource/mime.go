package mailsource

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"net/url"
	"regexp"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/text/encoding/htmlindex"
)

// wordDecoder decodes RFC 2047 encoded words in any charset htmlindex knows
var wordDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// decodeHeader decodes encoded words, keeping the raw value when decoding fails
func decodeHeader(v string) string {
	decoded, err := wordDecoder.DecodeHeader(v)
	if err != nil {
		return v
	}
	return decoded
}

// content is the readable text and attachment names of a message
type content struct {
	plain       strings.Builder
	html        strings.Builder
	attachments []string
}

// extractContent walks the MIME tree of a message. text/plain parts are
// preferred; html parts are used only when no plain text exists.
func extractContent(header textproto.MIMEHeader, body io.Reader) (string, []string, error) {
	var c content
	if err := c.walk(header, body, 0); err != nil {
		return "", nil, err
	}

	if c.plain.Len() > 0 {
		return c.plain.String(), c.attachments, nil
	}
	if c.html.Len() > 0 {
		return htmlToText(c.html.String()), c.attachments, nil
	}
	return "", c.attachments, nil
}

const maxDepth = 10

func (c *content) walk(header textproto.MIMEHeader, body io.Reader, depth int) error {
	if depth > maxDepth {
		return nil
	}

	mediaType, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil {
		mediaType, params = "text/plain", map[string]string{}
	}

	if name := attachmentName(header, params); name != "" {
		c.attachments = append(c.attachments, name)
		return nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary, ok := params["boundary"]
		if !ok {
			return c.text(mediaType, params, header, body)
		}
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextRawPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				// keep what was read before the damaged part
				if c.plain.Len() > 0 || c.html.Len() > 0 {
					return nil
				}
				return fmt.Errorf("failed to read multipart body: %w", err)
			}
			if err := c.walk(part.Header, part, depth+1); err != nil {
				return err
			}
		}
	}

	if mediaType == "message/rfc822" {
		inner, err := mail.ReadMessage(body)
		if err != nil {
			return nil
		}
		return c.walk(textproto.MIMEHeader(inner.Header), inner.Body, depth+1)
	}

	return c.text(mediaType, params, header, body)
}

func (c *content) text(mediaType string, params map[string]string, header textproto.MIMEHeader, body io.Reader) error {
	var dst *strings.Builder
	switch mediaType {
	case "text/plain":
		dst = &c.plain
	case "text/html":
		dst = &c.html
	default:
		return nil
	}

	raw, err := io.ReadAll(transferDecoder(header.Get("Content-Transfer-Encoding"), body))
	if err != nil {
		return fmt.Errorf("failed to decode %s part: %w", mediaType, err)
	}
	dst.WriteString(decodeCharset(params["charset"], raw))
	dst.WriteString("\n")
	return nil
}

func transferDecoder(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	default:
		return r
	}
}

// decodeCharset converts a part to UTF-8. Unknown charsets pass through
// unchanged so invalid bytes stay visible downstream.
func decodeCharset(charset string, raw []byte) string {
	charset = strings.ToLower(strings.TrimSpace(charset))
	if charset == "" || charset == "utf-8" || charset == "us-ascii" {
		return string(raw)
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return string(raw)
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}

func attachmentName(header textproto.MIMEHeader, ctParams map[string]string) string {
	disposition, dParams, err := mime.ParseMediaType(header.Get("Content-Disposition"))
	if err == nil {
		if name := dParams["filename"]; name != "" {
			return decodeHeader(name)
		}
		if disposition == "attachment" {
			if name := ctParams["name"]; name != "" {
				return decodeHeader(name)
			}
			return "unnamed attachment"
		}
	}
	if name := ctParams["name"]; name != "" {
		return decodeHeader(name)
	}
	return ""
}

var (
	tagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
	scriptRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
)

// messageURL is the base for relative links in html bodies
var messageURL = &url.URL{Scheme: "http", Host: "localhost", Path: "/"}

// htmlToText extracts the readable text of an html body
func htmlToText(html string) string {
	article, err := readability.FromReader(strings.NewReader(html), messageURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return article.TextContent
	}
	text := scriptRe.ReplaceAllString(html, " ")
	text = tagRe.ReplaceAllString(text, " ")
	return strings.NewReplacer("&nbsp;", " ", "&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`).Replace(text)
}
