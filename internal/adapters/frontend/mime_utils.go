package frontend

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"

	"github.com/jaytaylor/html2text"
	"golang.org/x/text/encoding/htmlindex"
)

// nested multiparts deeper than this are ignored
const maxMIMEDepth = 5

var wordDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

// charsetReader converts input in the named charset to UTF-8
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// decodeHeader decodes RFC 2047 encoded words, returning the input unchanged on failure
func decodeHeader(value string) string {
	decoded, err := wordDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// extractTextFromMessage extracts the readable text of a message.
// text/plain parts are preferred; text/html is used with its markup removed when
// a message has no plain text.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	plain, htmlText, err := collectText(textproto.MIMEHeader(msg.Header), msg.Body, 0)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(plain) != "" {
		return plain, nil
	}
	return htmlToText(htmlText), nil
}

func collectText(header textproto.MIMEHeader, body io.Reader, depth int) (string, string, error) {
	mediaType, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil {
		mediaType = "text/plain"
		params = nil
	}

	if strings.HasPrefix(mediaType, "multipart/") && params["boundary"] != "" {
		if depth >= maxMIMEDepth {
			return "", "", nil
		}
		return collectParts(multipart.NewReader(body, params["boundary"]), depth)
	}

	if mediaType != "text/plain" && mediaType != "text/html" {
		return "", "", nil
	}

	reader := decodeTransfer(header.Get("Content-Transfer-Encoding"), body)
	if cs := strings.ToLower(params["charset"]); cs != "" && cs != "utf-8" && cs != "us-ascii" {
		if converted, err := charsetReader(cs, reader); err == nil {
			reader = converted
		}
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", "", err
	}

	if mediaType == "text/html" {
		return "", string(data), nil
	}
	return string(data), "", nil
}

func collectParts(mr *multipart.Reader, depth int) (string, string, error) {
	var plain, htmlText strings.Builder

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// keep whatever was readable before the broken part
			if plain.Len() > 0 || htmlText.Len() > 0 {
				break
			}
			return "", "", err
		}

		if disposition, _, _ := mime.ParseMediaType(part.Header.Get("Content-Disposition")); disposition == "attachment" {
			continue
		}

		p, h, err := collectText(part.Header, part, depth+1)
		if err != nil {
			continue
		}
		appendText(&plain, p)
		appendText(&htmlText, h)
	}

	return plain.String(), htmlText.String(), nil
}

func appendText(b *strings.Builder, text string) {
	if text == "" {
		return
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(text)
}

func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

// htmlToText renders markup as plain text, falling back to the markup
// itself when it cannot be parsed
func htmlToText(markup string) string {
	text, err := html2text.FromString(markup, html2text.Options{TextOnly: true})
	if err != nil {
		text = markup
	}
	return strings.Join(strings.Fields(text), " ")
}
