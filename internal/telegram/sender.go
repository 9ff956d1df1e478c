// Package telegram delivers the rendered brief to one or more chats. Long
// reports are split at line boundaries and sent as numbered parts. When no
// bot credentials are configured the sender prints to stdout instead, so a
// local run still shows its output.
package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// maxPartLength keeps each message under Telegram's 4096-char API limit with
// headroom for the (i/N) prefix.
const maxPartLength = 3500

type Sender struct {
	client  *resty.Client
	token   string
	chatIDs []string
	logger  *zap.Logger
}

// NewSender parses the comma-separated chat id list. An empty token or empty
// list yields a console-fallback sender.
func NewSender(token, chatIDList string, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	var chatIDs []string
	for _, id := range strings.Split(chatIDList, ",") {
		if id = strings.TrimSpace(id); id != "" {
			chatIDs = append(chatIDs, id)
		}
	}
	return &Sender{
		client:  resty.New(),
		token:   strings.TrimSpace(token),
		chatIDs: chatIDs,
		logger:  logger,
	}
}

// Configured reports whether real delivery is possible.
func (s *Sender) Configured() bool {
	return s.token != "" && len(s.chatIDs) > 0
}

// Send delivers the text to every configured chat. Without credentials the
// text goes to stdout and the call succeeds.
func (s *Sender) Send(ctx context.Context, text string) error {
	if !s.Configured() {
		fmt.Println(text)
		return nil
	}

	parts := SplitMessage(text, maxPartLength)
	if len(parts) == 0 {
		return nil
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.token)
	var failed int
	for i, part := range parts {
		prefixed := fmt.Sprintf("(%d/%d) %s", i+1, len(parts), part)
		for _, chatID := range s.chatIDs {
			if err := s.sendMessage(ctx, url, chatID, prefixed); err != nil {
				s.logger.Warn("telegram send failed",
					zap.String("chat_id", chatID),
					zap.Int("part", i+1),
					zap.Int("total", len(parts)),
					zap.Error(err))
				failed++
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("telegram delivery failed for %d message(s)", failed)
	}
	return nil
}

func (s *Sender) sendMessage(ctx context.Context, url, chatID, text string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"chat_id": chatID, "text": text}).
		Post(url)
	if err != nil {
		return fmt.Errorf("post message: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("telegram http %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// SplitMessage splits text at line boundaries so no part exceeds maxLength.
// A single line longer than maxLength becomes its own part; blank-only parts
// are dropped.
func SplitMessage(text string, maxLength int) []string {
	lines := strings.Split(text, "\n")
	var parts []string
	var current []string
	currentLen := 0

	flush := func() {
		part := strings.Join(current, "\n")
		if strings.TrimSpace(part) != "" {
			parts = append(parts, part)
		}
	}

	for _, line := range lines {
		additional := len(line)
		if len(current) > 0 {
			additional++ // joining newline
		}
		if len(current) > 0 && currentLen+additional > maxLength {
			flush()
			current = []string{line}
			currentLen = len(line)
			continue
		}
		current = append(current, line)
		currentLen += additional
	}
	if len(current) > 0 {
		flush()
	}
	return parts
}
