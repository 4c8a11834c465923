package client

import (
	"context"
	"errors"
	"github.com/imroc/req/v3"
	"github.com/stretchr/testify/assert"
	"net/http"
	"net/url"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	var (
		base    = 100 * time.Millisecond
		max     = time.Second
		backoff = ExponentialBackoff(base, max)
	)

	tests := []struct {
		attempt int
		min     time.Duration
		max     time.Duration
	}{
		{attempt: 1, min: 100 * time.Millisecond, max: 125 * time.Millisecond},
		{attempt: 2, min: 200 * time.Millisecond, max: 250 * time.Millisecond},
		{attempt: 3, min: 400 * time.Millisecond, max: 500 * time.Millisecond},
		{attempt: 6, min: time.Second, max: time.Second},
	}
	for _, tt := range tests {
		for i := 0; i < 20; i++ {
			d := backoff(tt.attempt)
			assert.GreaterOrEqual(t, d, tt.min, "задержка не меньше удвоенной базовой")
			assert.LessOrEqual(t, d, tt.max, "задержка не больше допустимой")
		}
	}
}

func TestIsTransient(t *testing.T) {
	response := func(code int) *req.Response {
		return &req.Response{Response: &http.Response{StatusCode: code}}
	}

	tests := []struct {
		name      string
		resp      *req.Response
		err       error
		retryable bool
	}{
		{
			name:      "сетевая ошибка",
			err:       &url.Error{Op: "Get", URL: "https://api.bol.loc", Err: errors.New("connection reset")},
			retryable: true,
		},
		{
			name:      "отмена контекста",
			err:       &url.Error{Op: "Get", URL: "https://api.bol.loc", Err: context.Canceled},
			retryable: false,
		},
		{
			name:      "ошибка разбора ответа",
			err:       errors.New("invalid character"),
			retryable: false,
		},
		{name: "ответ 500", resp: response(http.StatusInternalServerError), retryable: true},
		{name: "ответ 503", resp: response(http.StatusServiceUnavailable), retryable: true},
		{name: "ответ 429", resp: response(http.StatusTooManyRequests), retryable: true},
		{name: "ответ 400", resp: response(http.StatusBadRequest), retryable: false},
		{name: "ответ 401", resp: response(http.StatusUnauthorized), retryable: false},
		{name: "ответ 200", resp: response(http.StatusOK), retryable: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, IsTransient(tt.resp, tt.err))
		})
	}
}

func TestRetryPolicy_SingleAttempt(t *testing.T) {
	r := req.C().R()

	assert.Same(t, r, RetryPolicy{MaxAttempts: 1}.apply(r, nil), "одна попытка не настраивает повторы")
}
