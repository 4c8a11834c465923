package client

import (
	"context"
	"errors"
	"github.com/imroc/req/v3"
	"math/rand"
	"net"
	"net/http"
	"time"
)

// RetryPolicy описывает повторные попытки запроса: максимальное число попыток, задержку
// перед очередной попыткой и условие, при котором ошибку можно повторить.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Retryable   func(resp *req.Response, err error) bool
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     ExponentialBackoff(2*time.Second, 10*time.Second),
		Retryable:   IsTransient,
	}
}

// ExponentialBackoff возвращает задержку, которая удваивается с каждой попыткой, начиная с base,
// со случайной добавкой до четверти задержки. Результат не превышает max.
func ExponentialBackoff(base, max time.Duration) func(attempt int) time.Duration {
	return func(attempt int) time.Duration {
		d := base
		for i := 1; i < attempt && d < max; i++ {
			d *= 2
		}

		if j := int64(d / 4); j > 0 {
			d += time.Duration(rand.Int63n(j))
		}

		if d > max {
			d = max
		}

		return d
	}
}

// IsTransient считает временными сетевые ошибки, ответы 5xx и 429.
func IsTransient(resp *req.Response, err error) bool {
	if err != nil {
		return isNetworkError(err)
	}

	return resp != nil && isTransientStatus(resp.StatusCode)
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error

	return errors.As(err, &netErr)
}

func onlyNetworkErrors(_ *req.Response, err error) bool {
	return err != nil && isNetworkError(err)
}

func isTransientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func (p RetryPolicy) withCondition(cond func(resp *req.Response, err error) bool) RetryPolicy {
	p.Retryable = cond

	return p
}

func (p RetryPolicy) apply(r *req.Request, hook req.RetryHookFunc) *req.Request {
	if p.MaxAttempts <= 1 {
		return r
	}

	backoff := p.Backoff
	if backoff == nil {
		backoff = func(int) time.Duration { return 0 }
	}

	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	r.SetRetryCount(p.MaxAttempts - 1).
		SetRetryInterval(func(_ *req.Response, attempt int) time.Duration {
			return backoff(attempt)
		}).
		SetRetryCondition(retryable)
	if hook != nil {
		r.AddRetryHook(hook)
	}

	return r
}
