package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"raccoonbt/summary"
	"raccoonbt/utils/json"
	"raccoonbt/utils/resty"
)

const (
	telegramBaseURL = "https://api.telegram.org"
	// 텔레그램 메시지 최대 길이
	telegramMaxLength = 4096
)

var ErrTelegramConfig = errors.New("telegram: bot token and chat id are required")

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	timeout  time.Duration
	resty    resty.RestyClient
}

type TelegramOption func(*TelegramNotifier)

func WithTelegramRestyClient(client resty.RestyClient) TelegramOption {
	return func(t *TelegramNotifier) {
		t.resty = client
	}
}

func WithTelegramBaseURL(baseURL string) TelegramOption {
	return func(t *TelegramNotifier) {
		t.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

func NewTelegramNotifier(botToken, chatID string, opts ...TelegramOption) (*TelegramNotifier, error) {
	if botToken == "" || chatID == "" {
		return nil, ErrTelegramConfig
	}
	t := &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  telegramBaseURL,
		timeout:  10 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.resty == nil {
		t.resty = resty.NewDefaultRestyClientWithTRetryCount(false, 2, t.timeout)
	}
	return t, nil
}

func (t *TelegramNotifier) SendNotification(message string) error {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	if len([]rune(message)) > telegramMaxLength {
		message = string([]rune(message)[:telegramMaxLength-3]) + "..."
	}

	body := map[string]string{
		"chat_id": t.chatID,
		"text":    message,
	}
	resp, err := t.resty.
		MakeRequest(ctx, body, nil).
		Post(fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken))
	if err != nil {
		return fmt.Errorf("텔레그램 전송 실패: %w", err)
	}

	result, err := json.DeserializeBody[telegramResponse](resp.Body())
	if err != nil {
		return fmt.Errorf("텔레그램 응답 파싱 실패 (%d): %w", resp.StatusCode(), err)
	}
	if resp.StatusCode() != 200 || !result.OK {
		return fmt.Errorf("텔레그램 응답 오류: %d, %s", resp.StatusCode(), result.Description)
	}
	return nil
}

// SummaryMessage : 슬롯별 결과를 한 메시지로
func SummaryMessage(title string, summaries []summary.Summary) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] 백테스트 완료\n", title))
	for _, s := range summaries {
		sb.WriteString("\n")
		sb.WriteString(s.Text())
	}
	return sb.String()
}
