package resty

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

type defaultRestyClient struct {
	restyClient *resty.Client
}

func (client *defaultRestyClient) MakeRequest(ctx context.Context, body any, header any, contentType ...string) ReadyRestyReq {
	request := client.restyClient.R().SetContext(ctx)
	if body != nil {
		request.SetBody(body)
	}

	accept := "application/json"
	if len(contentType) > 0 {
		accept = contentType[0]
	}
	request.SetHeader("Content-Type", accept)
	request.SetHeader("Accept", accept)

	if headers, ok := header.(map[string]string); ok {
		request.SetHeaders(headers)
	}
	return &defaultReadyRestyReq{request: request}
}

func (client *defaultRestyClient) setupClient(trace bool, retry int, timeout ...time.Duration) {
	restyClient := resty.New()
	restyClient.SetRetryCount(retry)
	restyClient.SetTimeout(10 * time.Second)
	if len(timeout) > 0 {
		restyClient.SetTimeout(timeout[0])
	}
	restyClient.SetRetryWaitTime(time.Second)
	restyClient.SetRetryMaxWaitTime(5 * time.Second)
	// 업비트 시세 API 는 초당 요청 제한을 넘기면 429 를 준다
	restyClient.AddRetryCondition(func(response *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return response.StatusCode() >= 500 || response.StatusCode() == http.StatusTooManyRequests
	})

	transport := &http.Transport{
		DialContext:         (&net.Dialer{}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
	}
	restyClient.SetTransport(transport)

	if trace {
		restyClient.EnableTrace()
	}

	client.restyClient = restyClient
}

type defaultReadyRestyReq struct {
	request *resty.Request
}

func (req *defaultReadyRestyReq) withQuery(queryParams []QueryParam) *resty.Request {
	for _, query := range queryParams {
		req.request.SetQueryParam(query.Key, fmt.Sprintf("%v", query.Value))
	}
	return req.request
}

func (req *defaultReadyRestyReq) Get(url string, queryParams ...QueryParam) (*resty.Response, error) {
	return req.withQuery(queryParams).Get(url)
}

func (req *defaultReadyRestyReq) Post(url string, queryParams ...QueryParam) (*resty.Response, error) {
	return req.withQuery(queryParams).Post(url)
}
