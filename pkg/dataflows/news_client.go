package dataflows

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// RSS feed structures for Google News.
type RSS struct {
	XMLName xml.Name `xml:"rss"`
	Channel Channel  `xml:"channel"`
}

type Channel struct {
	Title string `xml:"title"`
	Items []Item `xml:"item"`
}

type Item struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate"`
	Source  Source `xml:"source"`
}

type Source struct {
	URL  string `xml:"url,attr"`
	Text string `xml:",chardata"`
}

// NewsClient handles Google News RSS operations
type NewsClient struct {
	client *resty.Client
	query  string
}

// NewNewsClient creates a news client searching for the given query.
func NewNewsClient(query string) *NewsClient {
	if strings.TrimSpace(query) == "" {
		query = "KOSPI"
	}

	client := resty.New()
	client.SetTimeout(7 * time.Second)
	client.SetHeader("User-Agent", "CommitteeGo/1.0")
	client.SetHeader("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7")

	return &NewsClient{
		client: client,
		query:  query,
	}
}

// Headlines returns up to limit deduplicated headlines from Google News RSS.
func (nc *NewsClient) Headlines(ctx context.Context, limit int) ([]string, error) {
	items, err := nc.FetchItems(ctx, maxInt(limit*2, 50))
	if err != nil {
		return nil, err
	}

	items = DeduplicateItems(items, limit)
	if len(items) == 0 {
		return nil, fmt.Errorf("no_titles")
	}

	titles := make([]string, 0, len(items))
	for _, item := range items {
		titles = append(titles, item.Title)
	}
	return titles, nil
}

// FetchItems fetches raw RSS items for the client's query, up to limit.
func (nc *NewsClient) FetchItems(ctx context.Context, limit int) ([]Item, error) {
	feedURL := fmt.Sprintf("https://news.google.com/rss/search?q=%s", url.QueryEscape(nc.query))

	resp, err := nc.client.R().SetContext(ctx).Get(feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news feed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("http_status_%d", resp.StatusCode())
	}

	var feed RSS
	if err := xml.Unmarshal(resp.Body(), &feed); err != nil {
		return nil, fmt.Errorf("failed to parse news feed: %w", err)
	}

	items := make([]Item, 0, limit)
	for _, item := range feed.Channel.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		item.Title = title
		items = append(items, item)
		if len(items) >= limit {
			break
		}
	}
	return items, nil
}

var (
	trailingParenRe  = regexp.MustCompile(`\([^)]*\)$`)
	bracketRe        = regexp.MustCompile(`\[[^\]]*\]`)
	trailingSourceRe = regexp.MustCompile(`\s+-\s+[^-]+$`)
	nonWordRe        = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	spaceRe          = regexp.MustCompile(`\s+`)
)

// normalizeHeadline strips publisher suffixes, bracketed tags and punctuation
// so near-duplicate headlines compare equal.
func normalizeHeadline(title string) string {
	s := trailingParenRe.ReplaceAllString(title, "")
	s = bracketRe.ReplaceAllString(s, " ")
	s = trailingSourceRe.ReplaceAllString(s, "")
	s = nonWordRe.ReplaceAllString(s, " ")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// DeduplicateItems drops duplicated and near-duplicated headlines while
// preserving order. Two headlines count as duplicates when their normalized
// token sets overlap by 85% or more.
func DeduplicateItems(items []Item, limit int) []Item {
	unique := make([]Item, 0, limit)
	seen := make(map[string]bool)
	var seenTokens []map[string]bool

	for _, item := range items {
		normalized := normalizeHeadline(item.Title)
		if normalized == "" || seen[normalized] {
			continue
		}

		tokens := tokenSet(normalized)
		duplicate := false
		for _, prior := range seenTokens {
			if len(tokens) == 0 || len(prior) == 0 {
				continue
			}
			if overlapRatio(tokens, prior) >= 0.85 {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		seen[normalized] = true
		seenTokens = append(seenTokens, tokens)
		unique = append(unique, item)
		if len(unique) >= limit {
			break
		}
	}
	return unique
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

func overlapRatio(a, b map[string]bool) float64 {
	larger := len(a)
	if len(b) > larger {
		larger = len(b)
	}
	if larger == 0 {
		return 0
	}
	shared := 0
	for tok := range a {
		if b[tok] {
			shared++
		}
	}
	return float64(shared) / float64(larger)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
