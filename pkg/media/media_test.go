package media

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
	jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, make([]byte, 32)...)
	webpBytes = append([]byte("RIFF\x24\x00\x00\x00WEBPVP8 "), make([]byte, 32)...)
	gifBytes  = append([]byte("GIF89a"), make([]byte, 32)...)
)

func TestInspect(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		data     []byte
		wantExt  string
		wantErr  error
	}{
		{"png", "image/png", pngBytes, "png", nil},
		{"jpeg", "image/jpeg", jpegBytes, "jpg", nil},
		{"jpg alias", "image/jpg", jpegBytes, "jpg", nil},
		{"webp", "image/webp", webpBytes, "webp", nil},
		{"no declared type", "", pngBytes, "png", nil},
		{"gif rejected", "image/gif", gifBytes, "", ErrUnsupportedType},
		{"text rejected", "image/png", []byte("hello world, not an image"), "", ErrUnsupportedType},
		{"mismatch", "image/jpeg", pngBytes, "", ErrTypeMismatch},
		{"declared not allowed", "application/pdf", pngBytes, "", ErrUnsupportedType},
		{"empty", "image/png", nil, "", ErrEmpty},
		{"too large", "image/png", append(pngBytes, make([]byte, MaxImageSize)...), "", ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Inspect(tt.declared, tt.data)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, img.Ext)
		})
	}
}

func TestReadLimited(t *testing.T) {
	data, err := ReadLimited(bytes.NewReader(pngBytes))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)

	_, err = ReadLimited(io.LimitReader(zeroReader{}, MaxImageSize+10))
	assert.ErrorIs(t, err, ErrTooLarge)
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

func TestFileName(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	name := FileName(now, "png")
	assert.Regexp(t, regexp.MustCompile(`^producto-1700000000123-[a-z0-9]{8}\.png$`), name)
	assert.NotEqual(t, name, FileName(now, "png"))
}

func TestLocalStorage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "productos")
	s, err := NewLocalStorage(dir, "/uploads/productos/")
	require.NoError(t, err)
	ctx := context.Background()
	img := &Image{Data: pngBytes, ContentType: "image/png", Ext: "png"}

	url, err := s.Save(ctx, "producto-1-abc.png", img)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/productos/producto-1-abc.png", url)

	got, err := os.ReadFile(filepath.Join(dir, "producto-1-abc.png"))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, got)

	_, err = s.Save(ctx, "producto-1-abc.png", img)
	assert.Error(t, err, "existing files are never overwritten")

	for _, bad := range []string{"../escape.png", "sub/dir.png", ".hidden", ""} {
		_, err := s.Save(ctx, bad, img)
		assert.Error(t, err, bad)
	}

	require.NoError(t, s.Delete(ctx, "producto-1-abc.png"))
	require.NoError(t, s.Delete(ctx, "producto-1-abc.png"))
}

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	deletes []string
	body    []byte
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, in)
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Storage(t *testing.T) {
	fake := &fakeS3{}
	s := NewS3StorageWithClient(fake, S3Config{Bucket: "shop-media", PublicURL: "https://cdn.example.com/"})
	ctx := context.Background()

	url, err := s.Save(ctx, "producto-1-abc.webp", &Image{Data: webpBytes, ContentType: "image/webp", Ext: "webp"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/uploads/productos/producto-1-abc.webp", url)

	require.Len(t, fake.puts, 1)
	in := fake.puts[0]
	assert.Equal(t, "shop-media", aws.ToString(in.Bucket))
	assert.Equal(t, "uploads/productos/producto-1-abc.webp", aws.ToString(in.Key))
	assert.Equal(t, "image/webp", aws.ToString(in.ContentType))
	assert.Equal(t, webpBytes, fake.body)

	require.NoError(t, s.Delete(ctx, "producto-1-abc.webp"))
	assert.Equal(t, []string{"uploads/productos/producto-1-abc.webp"}, fake.deletes)

	def := NewS3StorageWithClient(fake, S3Config{Bucket: "b", Prefix: "/img/"})
	url, err = def.Save(ctx, "x.png", &Image{Data: pngBytes, ContentType: "image/png"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://b.s3.amazonaws.com/img/"), url)
}
