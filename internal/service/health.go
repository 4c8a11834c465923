package service

import (
	"context"
	"github.com/ivanpodgorny/bolexport/internal/entity"
	"log/slog"
)

const (
	CheckConfiguration = "Configuration"
	CheckAuth          = "API Authentication"
	CheckConnectivity  = "API Connectivity"
)

// Health проверяет доступность Retailer API с текущими учетными данными.
type Health struct {
	client HealthClient
	filter entity.OrderFilter
	logger *slog.Logger
}

type HealthClient interface {
	Authenticate(ctx context.Context) (entity.Token, error)
	Probe(ctx context.Context, filter entity.OrderFilter) (int, error)
}

func NewHealth(c HealthClient, logger *slog.Logger) *Health {
	return &Health{
		client: c,
		filter: entity.DefaultOrderFilter(),
		logger: logger,
	}
}

// ConfigurationResult возвращает результат проверки конфигурации по ошибке ее загрузки.
func ConfigurationResult(apiBase string, err error) entity.HealthCheckResult {
	if err != nil {
		return entity.HealthCheckResult{
			Name:    CheckConfiguration,
			Message: "configuration error: " + err.Error(),
		}
	}

	return entity.HealthCheckResult{
		Name:    CheckConfiguration,
		Passed:  true,
		Message: "configuration loaded",
		Details: map[string]any{"api_base": apiBase},
	}
}

// Skipped возвращает непройденные проверки API, которые нельзя выполнить без конфигурации.
func Skipped() []entity.HealthCheckResult {
	return []entity.HealthCheckResult{
		{Name: CheckAuth, Message: "skipped: configuration is invalid"},
		{Name: CheckConnectivity, Message: "skipped: configuration is invalid"},
	}
}

// Check выполняет проверку авторизации и легкий запрос списка заказов.
func (s *Health) Check(ctx context.Context) []entity.HealthCheckResult {
	return []entity.HealthCheckResult{
		s.checkAuth(ctx),
		s.checkConnectivity(ctx),
	}
}

func (s *Health) checkAuth(ctx context.Context) entity.HealthCheckResult {
	token, err := s.client.Authenticate(ctx)
	if err != nil {
		s.logger.Error("проверка авторизации не пройдена", slog.String("error", err.Error()))

		return entity.HealthCheckResult{
			Name:    CheckAuth,
			Message: "authentication failed: " + err.Error(),
		}
	}

	return entity.HealthCheckResult{
		Name:    CheckAuth,
		Passed:  true,
		Message: "authenticated",
		Details: map[string]any{"token_expires_at": token.ExpiresAt},
	}
}

func (s *Health) checkConnectivity(ctx context.Context) entity.HealthCheckResult {
	n, err := s.client.Probe(ctx, s.filter)
	if err != nil {
		s.logger.Error("проверка доступности API не пройдена", slog.String("error", err.Error()))

		return entity.HealthCheckResult{
			Name:    CheckConnectivity,
			Message: "api request failed: " + err.Error(),
		}
	}

	return entity.HealthCheckResult{
		Name:    CheckConnectivity,
		Passed:  true,
		Message: "api reachable",
		Details: map[string]any{"order_count": n},
	}
}

// Failed возвращает количество непройденных проверок.
func Failed(results []entity.HealthCheckResult) int {
	n := 0
	for _, r := range results {
		if !r.Passed {
			n++
		}
	}

	return n
}
