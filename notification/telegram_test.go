package notification

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"raccoonbt/interfaces"
	"raccoonbt/summary"
	"raccoonbt/utils/resty"
)

const sendPath = telegramBaseURL + "/botTOKEN/sendMessage"

var _ interfaces.Notifier = (*TelegramNotifier)(nil)

func TestTelegramNotifier_SendNotification(t *testing.T) {
	var got map[string]string
	client := resty.NewMockRestyClient([]resty.MockFunc{{
		Method: "POST",
		Path:   sendPath,
		ResultBody: func(header any, requestBody any, params ...resty.QueryParam) (resty.MockFuncResponse, error) {
			got = requestBody.(map[string]string)
			return resty.MockFuncResponse{
				RawResponse: &http.Response{StatusCode: 200},
				Body:        telegramResponse{OK: true},
			}, nil
		},
	}})

	notifier, err := NewTelegramNotifier("TOKEN", "42", WithTelegramRestyClient(client))
	require.NoError(t, err)
	require.NoError(t, notifier.SendNotification("hello"))
	require.Equal(t, "42", got["chat_id"])
	require.Equal(t, "hello", got["text"])
}

func TestTelegramNotifier_Truncate(t *testing.T) {
	var text string
	client := resty.NewMockRestyClient([]resty.MockFunc{{
		Method: "POST",
		Path:   sendPath,
		ResultBody: func(header any, requestBody any, params ...resty.QueryParam) (resty.MockFuncResponse, error) {
			text = requestBody.(map[string]string)["text"]
			return resty.MockFuncResponse{RawResponse: &http.Response{StatusCode: 200}, Body: telegramResponse{OK: true}}, nil
		},
	}})

	notifier, err := NewTelegramNotifier("TOKEN", "42", WithTelegramRestyClient(client))
	require.NoError(t, err)
	require.NoError(t, notifier.SendNotification(strings.Repeat("가", telegramMaxLength+10)))
	require.Len(t, []rune(text), telegramMaxLength)
	require.True(t, strings.HasSuffix(text, "..."))
}

func TestTelegramNotifier_Errors(t *testing.T) {
	_, err := NewTelegramNotifier("", "42")
	require.ErrorIs(t, err, ErrTelegramConfig)

	client := resty.NewMockRestyClient([]resty.MockFunc{{
		Method: "POST",
		Path:   sendPath,
		ResultBody: func(header any, requestBody any, params ...resty.QueryParam) (resty.MockFuncResponse, error) {
			return resty.MockFuncResponse{
				RawResponse: &http.Response{StatusCode: 400},
				Body:        telegramResponse{OK: false, Description: "chat not found"},
			}, nil
		},
	}})
	notifier, err := NewTelegramNotifier("TOKEN", "42", WithTelegramRestyClient(client))
	require.NoError(t, err)

	err = notifier.SendNotification("hello")
	require.Error(t, err)
	require.Contains(t, err.Error(), "chat not found")

	// 다른 토큰이면 mock 이 없어서 전송 자체가 실패
	other, err := NewTelegramNotifier("OTHER", "42", WithTelegramRestyClient(client))
	require.NoError(t, err)
	require.Error(t, other.SendNotification("hello"))
}

func TestSummaryMessage(t *testing.T) {
	msg := SummaryMessage("daily", []summary.Summary{
		{Name: "ema", Trades: 3, Wins: 2, Losses: 1},
		{Name: "turtle"},
	})
	require.True(t, strings.HasPrefix(msg, "[daily]"))
	require.Contains(t, msg, "[ema]")
	require.Contains(t, msg, "[turtle]")
}
