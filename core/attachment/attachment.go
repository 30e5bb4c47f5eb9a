package attachment

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"

	"github.com/leofalp/chatwidget/providers/ai"
)

// DefaultMaxSizeMB is the size limit applied when none is configured.
const DefaultMaxSizeMB = 8

// Attachment is an image waiting to be merged into a user turn.
type Attachment struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64, standard encoding
	Size     int64  `json:"size"` // bytes before encoding
}

// Part converts the attachment into an image part.
func (a Attachment) Part() ai.Part {
	return ai.ImagePart(a.MimeType, a.Data)
}

// Parts converts attachments into image parts preserving order.
func Parts(attachments []Attachment) []ai.Part {
	if len(attachments) == 0 {
		return nil
	}
	parts := make([]ai.Part, len(attachments))
	for i, a := range attachments {
		parts[i] = a.Part()
	}
	return parts
}

// Input is raw content offered for attachment.
type Input struct {
	Name         string
	Data         []byte
	DeclaredMime string
}

// Loader validates and encodes attachments.
type Loader struct {
	MaxSizeMB int
}

// NewLoader creates a loader; a non-positive limit means DefaultMaxSizeMB.
func NewLoader(maxSizeMB int) *Loader {
	if maxSizeMB <= 0 {
		maxSizeMB = DefaultMaxSizeMB
	}
	return &Loader{MaxSizeMB: maxSizeMB}
}

// MaxBytes returns the limit in bytes.
func (l *Loader) MaxBytes() int64 {
	mb := l.MaxSizeMB
	if mb <= 0 {
		mb = DefaultMaxSizeMB
	}
	return int64(mb) * 1024 * 1024
}

// Load checks size and type and returns the encoded attachment.
func (l *Loader) Load(name string, data []byte, declaredMime string) (Attachment, error) {
	size := int64(len(data))
	if size > l.MaxBytes() {
		return Attachment{}, &TooLargeError{Name: name, Size: size, MaxBytes: l.MaxBytes()}
	}

	mimeType := sniffMime(data, declaredMime)
	if !strings.HasPrefix(mimeType, "image/") {
		return Attachment{}, fmt.Errorf("%w: %q is %s", ErrUnsupportedType, name, orUnknown(mimeType))
	}

	return Attachment{
		Name:     name,
		MimeType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
		Size:     size,
	}, nil
}

// LoadReader reads at most one byte past the limit so oversized input is
// rejected without buffering all of it.
func (l *Loader) LoadReader(name string, r io.Reader, declaredMime string) (Attachment, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, l.MaxBytes()+1))
	if err != nil {
		return Attachment{}, fmt.Errorf("reading attachment %q: %w", name, err)
	}
	if n > l.MaxBytes() {
		return Attachment{}, &TooLargeError{Name: name, Size: n, MaxBytes: l.MaxBytes()}
	}
	return l.Load(name, buf.Bytes(), declaredMime)
}

// LoadFile loads an attachment from disk. The declared type comes from the
// file extension.
func (l *Loader) LoadFile(path string) (Attachment, error) {
	name := filepath.Base(path)

	info, err := os.Stat(path)
	if err != nil {
		return Attachment{}, fmt.Errorf("opening attachment: %w", err)
	}
	if info.Size() > l.MaxBytes() {
		return Attachment{}, &TooLargeError{Name: name, Size: info.Size(), MaxBytes: l.MaxBytes()}
	}

	f, err := os.Open(path)
	if err != nil {
		return Attachment{}, fmt.Errorf("opening attachment: %w", err)
	}
	defer f.Close()

	return l.LoadReader(name, f, mime.TypeByExtension(filepath.Ext(path)))
}

// Collect loads every input. Offending inputs are skipped and reported in
// errs; the rest are returned in input order.
func (l *Loader) Collect(inputs []Input) (attachments []Attachment, errs []error) {
	for _, in := range inputs {
		a, err := l.Load(in.Name, in.Data, in.DeclaredMime)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		attachments = append(attachments, a)
	}
	return attachments, errs
}

// IsRejected reports whether err is one of the per-attachment rejections
// Collect skips over.
func IsRejected(err error) bool {
	return errors.Is(err, ErrAttachmentTooLarge) || errors.Is(err, ErrUnsupportedType)
}

func sniffMime(data []byte, declared string) string {
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	if declared == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return ""
	}
	return mediaType
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
