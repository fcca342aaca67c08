package books

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/etnz/books/ids"
	"github.com/gabriel-vasile/mimetype"
)

// rleMarker tags a data URL whose payload is run-length encoded.
const rleMarker = "RLE1"

// File is an attachment before it is stored.
type File struct {
	Name string
	Type string // MIME type, sniffed when empty
	Data []byte
}

// ReadFile reads an attachment from disk.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	typ := mime.TypeByExtension(filepath.Ext(path))
	if typ == "" {
		typ = mimetype.Detect(data).String()
	}
	return File{Name: filepath.Base(path), Type: typ, Data: data}, nil
}

// rleEncode encodes data as (byte, count) pairs, count at most 255.
func rleEncode(data []byte) []byte {
	var out []byte
	for i := 0; i < len(data); {
		b, n := data[i], 1
		for i+n < len(data) && data[i+n] == b && n < 255 {
			n++
		}
		out = append(out, b, byte(n))
		i += n
	}
	return out
}

func rleDecode(data []byte) ([]byte, error) {
	if len(data)%2 != 0 {
		return nil, errors.New("truncated run-length payload")
	}
	var out []byte
	for i := 0; i < len(data); i += 2 {
		out = append(out, bytes.Repeat(data[i:i+1], int(data[i+1]))...)
	}
	return out, nil
}

// EncodeDataURL returns data as a base64 data URL. The run-length encoded
// form is used when it is shorter.
func EncodeDataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	raw := base64.StdEncoding.EncodeToString(data)
	packed := base64.StdEncoding.EncodeToString(rleEncode(data))
	if len(packed) < len(raw) {
		return fmt.Sprintf("data:%s;base64;%s,%s", mimeType, rleMarker, packed)
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, raw)
}

// DecodeDataURL returns the MIME type and bytes of a data URL built by
// EncodeDataURL.
func DecodeDataURL(url string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return "", nil, errors.New("not a data URL")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New("data URL without payload")
	}
	params := strings.Split(header, ";")
	mimeType := params[0]
	packed := params[len(params)-1] == rleMarker
	if !packed && params[len(params)-1] != "base64" {
		return "", nil, fmt.Errorf("unsupported data URL encoding %q", header)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("invalid data URL payload: %w", err)
	}
	if packed {
		if data, err = rleDecode(data); err != nil {
			return "", nil, err
		}
	}
	return mimeType, data, nil
}

// newAttachment builds the attachment of f for the record linkedID.
func newAttachment(f File, module Kind, linkedID string, now time.Time) (Attachment, error) {
	if f.Name == "" {
		return Attachment{}, errors.New("attachment without a name")
	}
	typ := f.Type
	if typ == "" {
		typ = mimetype.Detect(f.Data).String()
	}
	return Attachment{
		ID:        ids.New(),
		Name:      f.Name,
		Size:      int64(len(f.Data)),
		Type:      typ,
		Module:    module,
		LinkedID:  linkedID,
		CreatedAt: now.UTC(),
		DataURL:   EncodeDataURL(typ, f.Data),
	}, nil
}

// Content decodes the attachment bytes.
func (a Attachment) Content() ([]byte, error) {
	_, data, err := DecodeDataURL(a.DataURL)
	return data, err
}
