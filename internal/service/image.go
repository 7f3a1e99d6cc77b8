package service

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// MaxImageBytes is the largest photo a greeting accepts.
const MaxImageBytes = 5 * 1024 * 1024

// MaxImagePixels bounds width*height of a photo, so a small but highly
// compressed file cannot expand into gigabytes when decoded.
const MaxImagePixels = 4096 * 4096

var (
	// ErrImageTooLarge is returned for photos over MaxImageBytes.
	ErrImageTooLarge = errors.New("image is larger than 5MB")
	// ErrNotImage is returned when the payload is not an image.
	ErrNotImage = errors.New("file is not an image")
	// ErrImageDimensions is returned for photos over MaxImagePixels.
	ErrImageDimensions = errors.New("image dimensions are too large")
)

// ImageToDataURI reads a photo and returns it as a base64 data URI. An empty
// contentType is sniffed from the payload.
func ImageToDataURI(r io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(data) > MaxImageBytes {
		return "", ErrImageTooLarge
	}

	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	contentType = strings.TrimSpace(strings.ToLower(contentType))
	if err := CheckImage(contentType, data); err != nil {
		return "", err
	}

	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// DecodeDataURI splits a base64 data URI into its media type and payload.
func DecodeDataURI(uri string) (mediaType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, errors.New("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New("data URI has no payload")
	}
	mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, errors.New("data URI is not base64")
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URI: %w", err)
	}
	return mediaType, data, nil
}

// CheckImage applies the photo rules to a decoded payload: an image/ media
// type, at most MaxImageBytes, and at most MaxImagePixels when the format
// is one we can read the header of.
func CheckImage(mediaType string, data []byte) error {
	if !strings.HasPrefix(mediaType, "image/") {
		return ErrNotImage
	}
	if len(data) > MaxImageBytes {
		return ErrImageTooLarge
	}
	if !PixelsWithin(data, MaxImagePixels) {
		return ErrImageDimensions
	}
	return nil
}

// PixelsWithin reports whether the image header in data declares at most
// limit pixels. Payloads whose header cannot be read pass.
func PixelsWithin(data []byte, limit int) bool {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return true
	}
	return cfg.Width <= limit && cfg.Height <= limit && cfg.Width*cfg.Height <= limit
}

// CheckDataURI decodes uri and applies CheckImage to it.
func CheckDataURI(uri string) error {
	mediaType, data, err := DecodeDataURI(uri)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotImage, err)
	}
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return CheckImage(strings.TrimSpace(strings.ToLower(mediaType)), data)
}
