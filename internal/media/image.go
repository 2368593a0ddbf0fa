// Package media prepares recipe photos for storage.
package media

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
)

// MaxWidth is the width stored photos are scaled down to.
const MaxWidth = 800

// ErrUnsupportedType is returned for files that are not JPEG or PNG.
var ErrUnsupportedType = errors.New("invalid file type, only JPEG, JPG and PNG images are allowed")

var allowedExtensions = map[string]string{
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
}

// Extension returns the lowercased extension of filename if it is an
// accepted image type.
func Extension(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", ErrUnsupportedType
	}
	return ext, nil
}

// MimeType returns the content type matching ext.
func MimeType(ext string) string {
	if m, ok := allowedExtensions[strings.ToLower(ext)]; ok {
		return m
	}
	return "application/octet-stream"
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FileName is the storage name of a recipe photo.
func FileName(data []byte, ext string) string {
	return "recipe_img_" + Hash(data)[:12] + ext
}

// Prepare decodes an image, scales it down to MaxWidth keeping the aspect
// ratio, and re-encodes it in the format implied by ext. Images that are
// already narrow enough keep their size.
func Prepare(data []byte, ext string) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if img.Bounds().Dx() > MaxWidth {
		img = resize.Resize(MaxWidth, 0, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	switch strings.ToLower(ext) {
	case ".jpeg", ".jpg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
	case ".png":
		err = png.Encode(&buf, img)
	default:
		return nil, ErrUnsupportedType
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
