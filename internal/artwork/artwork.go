// Package artwork downloads candidate cover images and prepares them for
// embedding or saving beside the album.
package artwork

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/nfnt/resize"
)

const jpegQuality = 90

// Client downloads and post-processes cover images. PreferredSize, when
// positive, is the square size images are downscaled to; smaller images are
// left alone (upscaling gains nothing).
type Client struct {
	httpClient    *http.Client
	preferredSize int
}

// New creates an artwork client.
func New(timeout time.Duration, preferredSize int) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient:    &http.Client{Timeout: timeout},
		preferredSize: preferredSize,
	}
}

// Fetch downloads the image at url and returns it re-encoded as JPEG at the
// preferred size.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create artwork request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download artwork: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("artwork download returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read artwork data: %w", err)
	}

	return c.process(data)
}

// process decodes, optionally downscales, and re-encodes as JPEG. Data that
// doesn't decode is returned as-is; the tag writer will accept or reject it.
func (c *Client) process(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, nil
	}

	if c.preferredSize > 0 {
		bounds := img.Bounds()
		if bounds.Dx() > c.preferredSize || bounds.Dy() > c.preferredSize {
			img = resize.Thumbnail(uint(c.preferredSize), uint(c.preferredSize), img, resize.Lanczos3)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode artwork: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveCover writes image data as "folder.jpg" in dir, replacing atomically.
func SaveCover(dir string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("no image data to save")
	}

	target := filepath.Join(dir, "folder.jpg")
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write cover: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to replace cover: %w", err)
	}
	return target, nil
}
