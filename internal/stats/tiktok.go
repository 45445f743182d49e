package stats

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	tiktokViewsSelector    = `[data-e2e="video-views"]`
	tiktokLikesSelector    = `[data-e2e="like-count"]`
	tiktokCommentsSelector = `[data-e2e="comment-count"]`
)

func (f *Fetcher) fetchTikTok(ctx context.Context, url string) Result {
	header := http.Header{}
	header.Set("User-Agent", f.userAgent)
	header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.get(ctx, url, header)
	if err != nil {
		return failure(PlatformTikTok, err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return failure(PlatformTikTok, ErrTimeout)
		}
		return failure(PlatformTikTok, fmt.Errorf("read page: %w", err))
	}

	counts, err := parseTikTokCounts(doc)
	if err != nil {
		return failure(PlatformTikTok, err)
	}
	return success(PlatformTikTok, counts)
}

// Counts are kept as TikTok renders them ("1.2M"), no normalization.
func parseTikTokCounts(doc *goquery.Document) (Counts, error) {
	field := func(selector string) (string, bool) {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			return "", false
		}
		text := strings.TrimSpace(sel.Text())
		return text, text != ""
	}

	views, ok1 := field(tiktokViewsSelector)
	likes, ok2 := field(tiktokLikesSelector)
	comments, ok3 := field(tiktokCommentsSelector)
	if !ok1 || !ok2 || !ok3 {
		return Counts{}, ErrParseStats
	}

	return Counts{Views: views, Likes: likes, Comments: comments}, nil
}
