package coverart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"path"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	// Register decoders for the formats cover sources actually serve.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// ErrNoUsableImage is returned when none of the candidate URLs yields a
// decodable image.
var ErrNoUsableImage = errors.New("no usable cover image among candidates")

// maxImageSize caps a single image download. Cover sources serve a few
// MB at most; anything beyond this is a misbehaving URL, not art.
const maxImageSize = 32 * 1024 * 1024

// Image is a downloaded, decoded cover candidate.
type Image struct {
	// SourceURL is where the image came from.
	SourceURL string

	// Data is the encoded image as downloaded (or transcoded, see
	// EnsureUploadable).
	Data []byte

	// Format is the decoded format name ("jpeg", "png", "webp", ...).
	Format string

	// Width and Height are the pixel dimensions.
	Width  int
	Height int

	// Converted is true if Data was transcoded from the original.
	Converted bool
}

// Area returns the pixel area used for ranking candidates.
func (i *Image) Area() int {
	return i.Width * i.Height
}

// Fetcher downloads cover candidates.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	concurrency int
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets a custom HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithUserAgent sets the User-Agent header for downloads.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithConcurrency bounds parallel downloads. Defaults to 4.
func WithConcurrency(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// NewFetcher creates a Fetcher with the given options.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{Timeout: 20 * time.Second},
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchBest downloads all candidate URLs concurrently, decodes their
// dimensions, and returns the image with the largest pixel area.
// Individual download or decode failures are tolerated as long as at
// least one candidate survives; cover sources routinely 404 on one of
// the two URLs a figure offers.
func (f *Fetcher) FetchBest(ctx context.Context, candidates []string) (*Image, error) {
	if len(candidates) == 0 {
		return nil, ErrNoUsableImage
	}

	images := make([]*Image, len(candidates))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for i, candidate := range candidates {
		g.Go(func() error {
			img, err := f.fetchOne(ctx, candidate)
			if err != nil {
				// Tolerated; ranking happens over what survived.
				return nil //nolint:nilerr // Candidate failures are expected
			}
			mu.Lock()
			images[i] = img
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var best *Image
	for _, img := range images {
		if img == nil {
			continue
		}
		if best == nil || img.Area() > best.Area() {
			best = img
		}
	}
	if best == nil {
		return nil, ErrNoUsableImage
	}
	return best, nil
}

// fetchOne downloads and decodes a single candidate.
func (f *Fetcher) fetchOne(ctx context.Context, imageURL string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("cover request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cover fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cover fetch: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("cover read: %w", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cover decode: %w", err)
	}

	return &Image{
		SourceURL: imageURL,
		Data:      data,
		Format:    format,
		Width:     cfg.Width,
		Height:    cfg.Height,
	}, nil
}

// FilenameFromURL derives a local filename for the image from its URL
// path, falling back to "cover". The extension is normalized to match
// the decoded format so the saved file and its content agree.
func FilenameFromURL(imageURL, format string) string {
	name := "cover"
	if u, err := url.Parse(imageURL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "." && base != "/" {
			name = base
		}
	}

	ext := "." + format
	if format == "jpeg" {
		ext = ".jpg"
	}
	if cur := path.Ext(name); cur != "" {
		name = name[:len(name)-len(cur)]
	}
	return name + ext
}
