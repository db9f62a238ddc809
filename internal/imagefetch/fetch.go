// Package imagefetch downloads an image by URL and produces the fixed-size
// RGB pixel array the preprocessing step consumes.
package imagefetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"go.uber.org/zap"
)

const (
	TargetSize = 224

	// MaxPixels bounds the decoded width*height, independent of the
	// compressed body size.
	MaxPixels = 40_000_000
)

var (
	ErrStatus   = errors.New("unexpected response status")
	ErrTooLarge = errors.New("image exceeds size limit")
	ErrTooBig   = errors.New("image dimensions exceed pixel limit")
	ErrDecode   = errors.New("unable to decode image")
)

// RawImage holds batch-of-one pixels in height, width, channel order with
// values in [0, 255].
type RawImage struct {
	Height int
	Width  int
	Pixels []float32
}

// Shape returns the NHWC dimensions of the pixel array.
func (r *RawImage) Shape() []int {
	return []int{1, r.Height, r.Width, 3}
}

type Fetcher struct {
	client   *http.Client
	size     int
	maxBytes int64
	logger   *zap.Logger
}

type Option func(*Fetcher)

// WithHTTPClient downloads through a copy of client carrying the fetcher's
// timeout. The caller's client is left untouched.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		copied := *client
		f.client = &copied
	}
}

// WithTargetSize changes the square edge the image is resized to.
func WithTargetSize(size int) Option {
	return func(f *Fetcher) {
		f.size = size
	}
}

func NewFetcher(timeout time.Duration, maxBytes int64, logger *zap.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{},
		size:     TargetSize,
		maxBytes: maxBytes,
		logger:   logger.Named("imagefetch"),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.client.Timeout = timeout
	return f
}

// Fetch downloads, decodes and resizes the image at url.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*RawImage, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.maxBytes)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooBig, cfg.Width, cfg.Height)
	}

	// Pixels are used in stored order; EXIF orientation is ignored.
	img, err := imaging.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	f.logger.Debug("image downloaded",
		zap.Int("bytes", len(body)),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()),
		zap.Duration("elapsed", time.Since(start)),
	)

	return FromImage(img, f.size), nil
}

// FromImage resizes img to size x size with nearest-neighbour sampling and
// flattens it to RGB, dropping any alpha channel.
func FromImage(img image.Image, size int) *RawImage {
	resized := resize.Resize(uint(size), uint(size), img, resize.NearestNeighbor)

	bounds := resized.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	pixels := make([]float32, 0, width*height*3)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(resized.At(x, y)).(color.NRGBA)
			pixels = append(pixels, float32(c.R), float32(c.G), float32(c.B))
		}
	}

	return &RawImage{Height: height, Width: width, Pixels: pixels}
}
