package resty

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMockRestyClient(t *testing.T) {
	var gotParams []QueryParam
	client := NewMockRestyClient([]MockFunc{{
		Method: "GET",
		Path:   "https://example.com/v1/ticker",
		ResultBody: func(header any, requestBody any, params ...QueryParam) (MockFuncResponse, error) {
			gotParams = params
			return MockFuncResponse{RawResponse: &http.Response{StatusCode: 200}, Body: map[string]int{"n": 1}}, nil
		},
	}})

	resp, err := client.MakeRequest(context.Background(), nil, nil).
		Get("https://example.com/v1/ticker", QueryParam{Key: "markets", Value: "KRW-BTC"})
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode())
	require.JSONEq(t, `{"n":1}`, resp.String())
	require.Equal(t, []QueryParam{{Key: "markets", Value: "KRW-BTC"}}, gotParams)

	_, err = client.MakeRequest(context.Background(), nil, nil).Post("https://example.com/v1/ticker")
	require.Error(t, err)
}

func TestMockRestyClient_GivenError(t *testing.T) {
	boom := errors.New("boom")
	client := NewMockRestyClient([]MockFunc{{
		Method: "POST",
		Path:   "https://example.com/send",
		ResultBody: func(header any, requestBody any, params ...QueryParam) (MockFuncResponse, error) {
			require.Equal(t, map[string]string{"text": "hi"}, requestBody)
			return MockFuncResponse{RawResponse: &http.Response{StatusCode: 502}}, boom
		},
	}})

	resp, err := client.MakeRequest(context.Background(), map[string]string{"text": "hi"}, nil).Post("https://example.com/send")
	require.ErrorIs(t, err, boom)
	require.Equal(t, 502, resp.StatusCode())
}
