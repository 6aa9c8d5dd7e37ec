// Package img prepares the report banner image.
package img

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// Banner is an image normalised for embedding: 8-bit PNG that fits the
// requested box.
type Banner struct {
	PNG          []byte
	Width        int
	Height       int
	SourceWidth  int
	SourceHeight int
}

// DefaultBox is the pixel box banners are scaled into. It keeps a 2:1
// ratio to match the header slot.
const (
	DefaultBoxWidth  = 400
	DefaultBoxHeight = 200
)

// PrepareBanner decodes data in any format imaging understands, applies
// EXIF orientation, fits it inside boxW x boxH without upscaling and
// re-encodes it as PNG.
func PrepareBanner(data []byte, boxW, boxH int) (*Banner, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("decode: empty image")
	}
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return encode(src, boxW, boxH)
}

// LoadBanner is PrepareBanner for a file on disk.
func LoadBanner(path string, boxW, boxH int) (*Banner, error) {
	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return encode(src, boxW, boxH)
}

func encode(src image.Image, boxW, boxH int) (*Banner, error) {
	if boxW <= 0 || boxH <= 0 {
		return nil, fmt.Errorf("invalid box %dx%d", boxW, boxH)
	}
	sb := src.Bounds()
	fitted := imaging.Fit(src, boxW, boxH, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	b := fitted.Bounds()
	return &Banner{
		PNG:          buf.Bytes(),
		Width:        b.Dx(),
		Height:       b.Dy(),
		SourceWidth:  sb.Dx(),
		SourceHeight: sb.Dy(),
	}, nil
}

// SupportedMimeTypes lists the image types PrepareBanner decodes.
func SupportedMimeTypes() []string {
	return []string{
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/bmp",
		"image/tiff",
	}
}

// Supports reports whether mimeType names a decodable banner format. An
// empty type is accepted and left to the decoder.
func Supports(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if mimeType == "" {
		return true
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	for _, t := range SupportedMimeTypes() {
		if t == mimeType {
			return true
		}
	}
	return false
}
