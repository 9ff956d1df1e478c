package dataflows

import (
	"strings"
	"testing"
)

func TestSummarizeToThreeLines(t *testing.T) {
	text := "The Korean stock market fell sharply on Tuesday amid chip sector weakness. " +
		"Foreign investors sold a net 450 billion won of KOSPI shares during the session. " +
		"Analysts expect volatility to persist until the Federal Reserve decision next week. " +
		"A fourth sentence that should not appear in the summary output at all."

	lines := SummarizeToThreeLines(text)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "The Korean stock market") {
		t.Errorf("unexpected first line: %q", lines[0])
	}
	if strings.Contains(strings.Join(lines, " "), "fourth sentence") {
		t.Error("summary should only carry the first three sentences")
	}
}

func TestSummarizeToThreeLinesPadsShortText(t *testing.T) {
	lines := SummarizeToThreeLines("One sentence only, but long enough to keep as a line.")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[1] != "추가 핵심 문장을 확보하지 못했습니다." {
		t.Errorf("expected padding line, got %q", lines[1])
	}
}

func TestSummarizeToThreeLinesEmpty(t *testing.T) {
	lines := SummarizeToThreeLines("")
	if len(lines) != 3 {
		t.Fatalf("expected 3 placeholder lines, got %d", len(lines))
	}
	if lines[0] != "본문을 가져오지 못했습니다." {
		t.Errorf("unexpected placeholder: %q", lines[0])
	}
}

func TestSummarizeLineLengthBound(t *testing.T) {
	long := strings.Repeat("aaaaa bbbbb ", 40) + "."
	lines := SummarizeToThreeLines(long)
	for i, line := range lines {
		if len([]rune(line)) > maxSummaryLineLen {
			t.Errorf("line %d exceeds %d runes: %d", i, maxSummaryLineLen, len([]rune(line)))
		}
	}
}

func TestExtractArticleText(t *testing.T) {
	html := `<html><head><style>p{color:red}</style></head><body>
		<nav>Menu things</nav>
		<article><p>First paragraph of the article body with enough text.</p>
		<p>Second paragraph continues the story in detail here.</p></article>
		<script>console.log("noise")</script>
		<footer>Copyright</footer></body></html>`

	text := extractArticleText(html)
	if !strings.Contains(text, "First paragraph") || !strings.Contains(text, "Second paragraph") {
		t.Errorf("paragraph text missing: %q", text)
	}
	if strings.Contains(text, "console.log") || strings.Contains(text, "Menu things") {
		t.Errorf("chrome should be stripped: %q", text)
	}
}
