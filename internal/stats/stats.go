package stats

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// Platform is the video platform a link belongs to
type Platform string

const (
	PlatformTikTok  Platform = "TikTok"
	PlatformYouTube Platform = "YouTube"
	PlatformUnknown Platform = "Unknown"
)

// NotAvailable stands in for a count the platform does not expose
const NotAvailable = "н/д"

var (
	ErrUnsupportedLink = errors.New("unsupported link")
	ErrParseLink       = errors.New("could not parse link")
	ErrParseStats      = errors.New("could not parse stats")
	ErrNoAPIKey        = errors.New("youtube api key is not configured")
	ErrVideoNotFound   = errors.New("video not found or private")
	ErrTimeout         = errors.New("request timed out")
)

// Counts are display-ready view/like/comment figures
type Counts struct {
	Views    string
	Likes    string
	Comments string
}

// Result holds either Counts or Err, never both
type Result struct {
	Platform Platform
	Counts   *Counts
	Err      error
}

func success(p Platform, c Counts) Result {
	return Result{Platform: p, Counts: &c}
}

func failure(p Platform, err error) Result {
	return Result{Platform: p, Err: err}
}

// OK reports whether the counts were collected
func (r Result) OK() bool {
	return r.Err == nil && r.Counts != nil
}

// Classify detects the platform by substring
func Classify(url string) Platform {
	switch {
	case strings.Contains(url, "tiktok.com"):
		return PlatformTikTok
	case strings.Contains(url, "youtube.com"), strings.Contains(url, "youtu.be"):
		return PlatformYouTube
	}
	return PlatformUnknown
}

// Supported reports whether Classify recognizes the link
func Supported(url string) bool {
	return Classify(url) != PlatformUnknown
}

// Fetcher collects video stats from TikTok pages and the YouTube Data API
type Fetcher struct {
	httpClient     *http.Client
	youtubeBaseURL string
	youtubeAPIKey  string
	userAgent      string
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client, its Timeout is kept as is
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.httpClient = c }
}

// WithUserAgent overrides the browser-like User-Agent used for scraping
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// NewFetcher creates a Fetcher. An empty apiKey disables YouTube lookups.
func NewFetcher(youtubeBaseURL, apiKey string, timeout time.Duration, opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient:     &http.Client{Timeout: timeout},
		youtubeBaseURL: strings.TrimSuffix(youtubeBaseURL, "/"),
		youtubeAPIKey:  apiKey,
		userAgent:      defaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch never returns a Go error: failures land in Result.Err
func (f *Fetcher) Fetch(ctx context.Context, url string) (res Result) {
	url = strings.TrimSpace(url)
	platform := Classify(url)

	defer func() {
		if r := recover(); r != nil {
			res = failure(platform, fmt.Errorf("unexpected failure: %v", r))
		}
	}()

	switch platform {
	case PlatformTikTok:
		return f.fetchTikTok(ctx, url)
	case PlatformYouTube:
		return f.fetchYouTube(ctx, url)
	}
	return failure(PlatformUnknown, ErrUnsupportedLink)
}

func (f *Fetcher) get(ctx context.Context, url string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
