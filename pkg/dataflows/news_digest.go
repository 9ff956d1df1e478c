package dataflows

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// DigestItem is one news article with its 3-line summary.
type DigestItem struct {
	Title        string   `json:"title"`
	Link         string   `json:"link"`
	SummaryLines []string `json:"summary_lines"`
}

// maxSummaryLineLen bounds each summary line.
const maxSummaryLineLen = 180

// NewsDigester fetches article bodies and condenses them into 3-line summaries
// for the morning report.
type NewsDigester struct {
	client *resty.Client
}

// NewNewsDigester creates a new article digester.
func NewNewsDigester() *NewsDigester {
	client := resty.New()
	client.SetTimeout(7 * time.Second)
	client.SetHeader("User-Agent", "CommitteeGo/1.0")
	client.SetHeader("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7")

	return &NewsDigester{client: client}
}

// Digest summarizes each item into a DigestItem. Article fetch failures
// degrade to placeholder summary lines instead of failing the digest.
func (nd *NewsDigester) Digest(ctx context.Context, items []Item) []DigestItem {
	digest := make([]DigestItem, 0, len(items))
	for _, item := range items {
		digest = append(digest, DigestItem{
			Title:        item.Title,
			Link:         item.Link,
			SummaryLines: nd.summarizeArticle(ctx, item.Link),
		})
	}
	return digest
}

func (nd *NewsDigester) summarizeArticle(ctx context.Context, link string) []string {
	if link == "" {
		return []string{"기사 링크가 없습니다.", "본문 수집 실패.", "RSS 제목만 참고하세요."}
	}

	resp, err := nd.client.R().SetContext(ctx).Get(link)
	if err != nil || resp.StatusCode() != 200 {
		return []string{"본문 요청 실패.", "핵심 요약 불가.", "원문 링크를 직접 확인하세요."}
	}

	text := extractArticleText(string(resp.Body()))
	return SummarizeToThreeLines(text)
}

// extractArticleText pulls readable text from article HTML, preferring
// paragraph tags and falling back to the whole body text.
func extractArticleText(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	doc.Find("script, style, nav, footer, header").Remove()

	paragraphs := doc.Find("article p")
	if paragraphs.Length() == 0 {
		paragraphs = doc.Find("p")
	}

	var parts []string
	paragraphs.Each(func(_ int, sel *goquery.Selection) {
		if t := strings.TrimSpace(sel.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	text := strings.Join(parts, " ")
	if text == "" {
		text = doc.Find("body").Text()
	}
	return spaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
}

var sentenceSplitRe = regexp.MustCompile(`(?:[.!?])\s+`)

// SummarizeToThreeLines builds a simple 3-line summary from article text:
// the first three sentences of meaningful length, padded with placeholders.
func SummarizeToThreeLines(text string) []string {
	if text == "" {
		return []string{"본문을 가져오지 못했습니다.", "핵심 내용 파악 불가.", "원문 링크를 확인하세요."}
	}

	sentences := sentenceSplitRe.Split(text, -1)
	cleaned := make([]string, 0, 3)
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if len([]rune(s)) >= 25 {
			cleaned = append(cleaned, s)
		}
		if len(cleaned) == 3 {
			break
		}
	}
	if len(cleaned) == 0 {
		cleaned = []string{text}
	}
	for len(cleaned) < 3 {
		cleaned = append(cleaned, "추가 핵심 문장을 확보하지 못했습니다.")
	}

	for i, line := range cleaned {
		runes := []rune(line)
		if len(runes) > maxSummaryLineLen {
			cleaned[i] = string(runes[:maxSummaryLineLen])
		}
	}
	return cleaned
}
