package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var youtubeIDRegex = regexp.MustCompile(
	`(?:https?://)?(?:www\.|m\.)?(?:youtube\.com/(?:watch\?(?:\S*&)?v=|embed/|v/|shorts/)|youtu\.be/)([0-9A-Za-z_-]{11})(?:[^0-9A-Za-z_-]|$)`,
)

type videoListResponse struct {
	Items []struct {
		Statistics videoStatistics `json:"statistics"`
	} `json:"items"`
}

type videoStatistics struct {
	ViewCount    string `json:"viewCount"`
	LikeCount    string `json:"likeCount"`
	CommentCount string `json:"commentCount"`
}

// ExtractVideoID returns the 11-character video id of a YouTube link
func ExtractVideoID(link string) (string, bool) {
	m := youtubeIDRegex.FindStringSubmatch(link)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

// FormatCount renders a raw API counter with thousands separators,
// or NotAvailable when the counter is hidden.
func FormatCount(raw string) string {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return NotAvailable
	}
	return message.NewPrinter(language.English).Sprintf("%d", n)
}

func (f *Fetcher) fetchYouTube(ctx context.Context, link string) Result {
	videoID, ok := ExtractVideoID(link)
	if !ok {
		return failure(PlatformYouTube, ErrParseLink)
	}
	if f.youtubeAPIKey == "" {
		return failure(PlatformYouTube, ErrNoAPIKey)
	}

	q := url.Values{}
	q.Set("part", "statistics")
	q.Set("id", videoID)
	q.Set("key", f.youtubeAPIKey)

	header := http.Header{}
	header.Set("Accept", "application/json")

	resp, err := f.get(ctx, f.youtubeBaseURL+"/videos?"+q.Encode(), header)
	if err != nil {
		return failure(PlatformYouTube, err)
	}
	defer resp.Body.Close()

	var body videoListResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if isTimeout(err) {
			return failure(PlatformYouTube, ErrTimeout)
		}
		return failure(PlatformYouTube, fmt.Errorf("decode statistics: %w", err))
	}

	if len(body.Items) == 0 {
		return failure(PlatformYouTube, ErrVideoNotFound)
	}

	st := body.Items[0].Statistics
	return success(PlatformYouTube, Counts{
		Views:    FormatCount(st.ViewCount),
		Likes:    FormatCount(st.LikeCount),
		Comments: FormatCount(st.CommentCount),
	})
}
