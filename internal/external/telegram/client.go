package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/config"
	"github.com/wonny/stockpick/pkg/httputil"
	"github.com/wonny/stockpick/pkg/logger"
)

const (
	// MaxMessageRunes is the Bot API limit for one sendMessage text
	MaxMessageRunes = 4096

	// MaxCaptionRunes is the Bot API limit for a photo caption
	MaxCaptionRunes = 1024
)

// Sink delivers text and chart images through the Telegram Bot API.
// No retry: a rejected payload is returned as ErrDeliveryFailure.
// ⭐ SSOT: 텔레그램 전송은 여기서만
type Sink struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	token      string
	chatID     string
}

// apiResponse is the common Bot API envelope
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// NewSink creates a sink. cfg.RequireDelivery() must have passed.
func NewSink(httpClient *httputil.Client, cfg config.TelegramConfig, log *logger.Logger) *Sink {
	return &Sink{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.BotToken,
		chatID:     cfg.ChatID,
	}
}

func (s *Sink) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", s.baseURL, s.token, method)
}

// SendText sends text, split on line boundaries when it exceeds the message limit
func (s *Sink) SendText(ctx context.Context, text string) error {
	for i, chunk := range splitMessage(text, MaxMessageRunes) {
		resp, err := s.httpClient.PostJSON(ctx, s.methodURL("sendMessage"), map[string]interface{}{
			"chat_id": s.chatID,
			"text":    chunk,
		})
		if err != nil {
			return fmt.Errorf("telegram sendMessage: %v: %w", err, contracts.ErrDeliveryFailure)
		}
		if err := checkResponse(resp); err != nil {
			return fmt.Errorf("telegram sendMessage part %d: %w", i+1, err)
		}
	}

	s.logger.WithField("runes", utf8.RuneCountInString(text)).Info("Telegram message sent")
	return nil
}

// SendImage uploads a PNG via multipart sendPhoto
func (s *Sink) SendImage(ctx context.Context, png []byte, caption string) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("chat_id", s.chatID); err != nil {
		return fmt.Errorf("telegram sendPhoto form: %w", err)
	}
	if caption != "" {
		if err := mw.WriteField("caption", truncateRunes(caption, MaxCaptionRunes)); err != nil {
			return fmt.Errorf("telegram sendPhoto form: %w", err)
		}
	}
	part, err := mw.CreateFormFile("photo", "chart.png")
	if err != nil {
		return fmt.Errorf("telegram sendPhoto form: %w", err)
	}
	if _, err := part.Write(png); err != nil {
		return fmt.Errorf("telegram sendPhoto form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("telegram sendPhoto form: %w", err)
	}

	resp, err := s.httpClient.Post(ctx, s.methodURL("sendPhoto"), mw.FormDataContentType(), bytes.NewReader(body.Bytes()))
	if err != nil {
		return fmt.Errorf("telegram sendPhoto: %v: %w", err, contracts.ErrDeliveryFailure)
	}
	if err := checkResponse(resp); err != nil {
		return fmt.Errorf("telegram sendPhoto: %w", err)
	}

	s.logger.WithField("bytes", len(png)).Info("Telegram photo sent")
	return nil
}

// checkResponse closes the body and maps a non-ok envelope to ErrDeliveryFailure
func checkResponse(resp *http.Response) error {
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var env apiResponse
	_ = json.Unmarshal(raw, &env)

	if resp.StatusCode != http.StatusOK || !env.OK {
		desc := env.Description
		if desc == "" {
			desc = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("status %d: %s: %w", resp.StatusCode, desc, contracts.ErrDeliveryFailure)
	}
	return nil
}

// splitMessage splits text into chunks of at most limit runes, preferring line breaks
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	curRunes := 0

	flush := func() {
		if curRunes > 0 {
			chunks = append(chunks, strings.TrimRight(cur.String(), "\n"))
			cur.Reset()
			curRunes = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf8.RuneCountInString(line)
		if curRunes+n > limit {
			flush()
		}
		// 한 줄이 limit 보다 긴 경우 강제 분할
		for n > limit {
			head := truncateRunes(line, limit)
			chunks = append(chunks, head)
			line = line[len(head):]
			n -= limit
		}
		cur.WriteString(line)
		curRunes += n
	}
	flush()
	return chunks
}

// truncateRunes cuts s to at most n runes
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
