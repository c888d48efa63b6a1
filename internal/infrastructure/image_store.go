package infrastructure

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidImage  = errors.New("invalid image")
	ErrImageTooLarge = errors.New("image too large")
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Image is a decoded upload.
type Image struct {
	Data        []byte
	ContentType string
}

func (i *Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DecodeImage accepts raw base64 or a data: URI and sniffs the content type.
// Only JPEG, PNG, WebP and GIF are accepted.
func DecodeImage(encoded string, maxBytes int) (*Image, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		comma := strings.IndexByte(encoded, ',')
		if comma < 0 {
			return nil, fmt.Errorf("%w: malformed data URI", ErrInvalidImage)
		}
		encoded = encoded[comma+1:]
	}
	if encoded == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidImage)
	}
	if maxBytes > 0 && base64.StdEncoding.DecodedLen(len(encoded)) > maxBytes+3 {
		return nil, ErrImageTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// some clients strip padding
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: not base64", ErrInvalidImage)
		}
	}
	if maxBytes > 0 && len(data) > maxBytes {
		return nil, ErrImageTooLarge
	}

	contentType := http.DetectContentType(data)
	if _, ok := imageExtensions[contentType]; !ok {
		return nil, fmt.Errorf("%w: unsupported type %s", ErrInvalidImage, contentType)
	}
	return &Image{Data: data, ContentType: contentType}, nil
}

// ImageStore writes uploads to a directory served under /images/.
type ImageStore struct {
	dir     string
	baseURL string
}

func NewImageStore(dir, publicBaseURL string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &ImageStore{dir: dir, baseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

func (s *ImageStore) Dir() string {
	return s.dir
}

// Save writes the image under a random name and returns its public URL.
func (s *ImageStore) Save(ctx context.Context, img *Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := uuid.NewString() + imageExtensions[img.ContentType]
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(img.Data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return s.baseURL + "/images/" + name, nil
}

// Remove deletes an image previously returned by Save. URLs that do not point
// into the store are rejected.
func (s *ImageStore) Remove(url string) error {
	prefix := s.baseURL + "/images/"
	if !strings.HasPrefix(url, prefix) {
		return fmt.Errorf("%w: not a stored image: %s", ErrInvalidImage, url)
	}
	name := strings.TrimPrefix(url, prefix)
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("%w: not a stored image: %s", ErrInvalidImage, url)
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
