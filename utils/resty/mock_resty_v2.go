package resty

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-resty/resty/v2"
)

type MockFuncResponse struct {
	Request     *resty.Request
	RawResponse *http.Response
	Body        any
}

// MockFunc : Method + Path(쿼리 제외 전체 URL) 로 매칭된다
type MockFunc struct {
	Method     string
	Path       string
	ResultBody func(header any, requestBody any, param ...QueryParam) (MockFuncResponse, error)
}

type mockRestyClient struct {
	mocks map[string]map[string]MockFunc
}

type mockReadyRestyReq struct {
	mocks  map[string]map[string]MockFunc
	body   any
	header any
}

func (client *mockRestyClient) MakeRequest(ctx context.Context, body any, header any, contentType ...string) ReadyRestyReq {
	return &mockReadyRestyReq{mocks: client.mocks, header: header, body: body}
}

func (m *mockReadyRestyReq) Get(url string, queryParams ...QueryParam) (*resty.Response, error) {
	return m.call(http.MethodGet, url, queryParams)
}

func (m *mockReadyRestyReq) Post(url string, queryParams ...QueryParam) (*resty.Response, error) {
	return m.call(http.MethodPost, url, queryParams)
}

func (m *mockReadyRestyReq) call(method, url string, queryParams []QueryParam) (*resty.Response, error) {
	mockFunc, ok := m.mocks[method][url]
	if !ok {
		return nil, fmt.Errorf("mock not found for %s %s", method, url)
	}

	resultBody, givenError := mockFunc.ResultBody(m.header, m.body, queryParams...)
	resultResponse, createErr := CreateMockResponse(resultBody, givenError)
	if createErr != nil {
		return nil, createErr
	}
	return resultResponse, givenError
}

func CreateMockResponse(givenBody MockFuncResponse, givenError error) (*resty.Response, error) {
	request := givenBody.Request
	if request == nil {
		request = &resty.Request{}
	}
	request.Error = givenError

	byteGivenBody, marshalErr := json.Marshal(givenBody.Body)
	if marshalErr != nil {
		return nil, marshalErr
	}

	statusCode := http.StatusOK
	var header http.Header
	if givenBody.RawResponse != nil {
		statusCode = givenBody.RawResponse.StatusCode
		header = givenBody.RawResponse.Header
	}

	rawResponse := &http.Response{
		Status:     http.StatusText(statusCode),
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewReader(byteGivenBody)),
		Header:     header,
	}
	restyResp := &resty.Response{
		RawResponse: rawResponse,
		Request:     request,
	}
	restyResp.SetBody(byteGivenBody)
	return restyResp, nil
}
