// Package asset supplies the optional banner image drawn on reports.
package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	simplecontent "github.com/tendant/simple-content/pkg/simplecontent"

	"github.com/tendant/simple-inspector/internal/img"
)

// MaxBannerBytes bounds how much of a banner source is read.
const MaxBannerBytes = 8 << 20

// ErrTooLarge is returned when a banner exceeds MaxBannerBytes.
var ErrTooLarge = errors.New("asset: banner exceeds size limit")

// None never has a banner.
type None struct{}

func (None) FetchBanner(context.Context) ([]byte, error) { return nil, nil }

// File reads the banner from a local path. An empty path means no banner.
type File struct {
	Path string
}

func (f File) FetchBanner(ctx context.Context) ([]byte, error) {
	if f.Path == "" {
		return nil, nil
	}
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open banner: %w", err)
	}
	defer file.Close()
	return readLimited(file)
}

// contentDownloader is the part of simplecontent.Service the Content
// fetcher uses.
type contentDownloader interface {
	DownloadContent(ctx context.Context, contentID uuid.UUID) (io.ReadCloser, error)
}

// Content downloads the banner from a simple-content store.
type Content struct {
	svc       contentDownloader
	mimeType  func(ctx context.Context, id uuid.UUID) (string, error)
	contentID uuid.UUID
}

// NewContent fetches contentID through svc. The content's MIME type is
// checked before download so non-image content fails fast.
func NewContent(svc simplecontent.Service, contentID uuid.UUID) *Content {
	lookup := func(ctx context.Context, id uuid.UUID) (string, error) {
		meta, err := svc.GetContentMetadata(ctx, id)
		if err != nil {
			return "", err
		}
		return meta.MimeType, nil
	}
	return &Content{svc: svc, mimeType: lookup, contentID: contentID}
}

func (c *Content) FetchBanner(ctx context.Context) ([]byte, error) {
	if c.contentID == uuid.Nil {
		return nil, nil
	}
	if c.mimeType != nil {
		// metadata is advisory; a failed lookup still attempts the download
		if mt, err := c.mimeType(ctx, c.contentID); err == nil && !img.Supports(mt) {
			return nil, fmt.Errorf("banner content %s has unsupported type %q", c.contentID, mt)
		}
	}

	reader, err := c.svc.DownloadContent(ctx, c.contentID)
	if err != nil {
		return nil, fmt.Errorf("download content: %w", err)
	}
	defer reader.Close()
	return readLimited(reader)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxBannerBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read banner: %w", err)
	}
	if len(data) > MaxBannerBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}
