// Package media validates uploaded product images and stores them on local
// disk or in an S3 bucket.
package media

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/dd0wney/cluso-shop/pkg/security"
)

// MaxImageSize is the largest accepted upload, 5 MiB.
const MaxImageSize int64 = 5 << 20

var (
	ErrEmpty           = errors.New("no file content")
	ErrUndetectable    = errors.New("file type could not be detected")
	ErrUnsupportedType = errors.New("file type not allowed")
	ErrTypeMismatch    = errors.New("declared type does not match content")
	ErrTooLarge        = errors.New("file exceeds maximum size")
)

// allowed maps accepted MIME types to the extension used on disk.
var allowed = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// Image is a validated upload ready to be stored.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

// Inspect sniffs data and checks it against the allow-list and the declared
// Content-Type. An empty declared type is accepted.
func Inspect(declared string, data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if int64(len(data)) > MaxImageSize {
		return nil, ErrTooLarge
	}

	detected := mimetype.Detect(data)
	if detected == nil || detected.Is("application/octet-stream") {
		return nil, ErrUndetectable
	}
	mime, _, _ := strings.Cut(detected.String(), ";")
	ext, ok := allowed[mime]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mime)
	}

	if declared != "" {
		declaredMime, _, _ := strings.Cut(strings.ToLower(declared), ";")
		declaredMime = strings.TrimSpace(declaredMime)
		if declaredMime == "image/jpg" {
			declaredMime = "image/jpeg"
		}
		if _, ok := allowed[declaredMime]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, declaredMime)
		}
		if declaredMime != mime {
			return nil, fmt.Errorf("%w: declared %s, detected %s", ErrTypeMismatch, declaredMime, mime)
		}
	}

	return &Image{Data: data, ContentType: mime, Ext: ext}, nil
}

// ReadLimited reads at most MaxImageSize bytes, failing with ErrTooLarge beyond that.
func ReadLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > MaxImageSize {
		return nil, ErrTooLarge
	}
	return data, nil
}

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// FileName builds producto-<unixms>-<rand8>.<ext>.
func FileName(now time.Time, ext string) string {
	var b strings.Builder
	for range 8 {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(suffixAlphabet))))
		if err != nil {
			b.WriteByte('0')
			continue
		}
		b.WriteByte(suffixAlphabet[n.Int64()])
	}
	return security.SanitizeFilename(fmt.Sprintf("producto-%d-%s.%s", now.UnixMilli(), b.String(), ext))
}

// Storage persists images and returns their public URL.
type Storage interface {
	Save(ctx context.Context, name string, img *Image) (string, error)
	Delete(ctx context.Context, name string) error
}
