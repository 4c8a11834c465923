package service

import (
	"context"
	"errors"
	"github.com/ivanpodgorny/bolexport/internal/entity"
	inerr "github.com/ivanpodgorny/bolexport/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestHealth_Check(t *testing.T) {
	var (
		ctx    = context.Background()
		client = &OrderClientMock{}
	)
	client.On("Authenticate").Return(token, nil).Once()
	client.On("Probe", entity.DefaultOrderFilter()).Return(3, nil).Once()

	results := NewHealth(client, discardLogger()).Check(ctx)
	require.Len(t, results, 2)
	assert.Equal(t, CheckAuth, results[0].Name)
	assert.True(t, results[0].Passed)
	assert.Equal(t, CheckConnectivity, results[1].Name)
	assert.True(t, results[1].Passed)
	assert.Equal(t, 3, results[1].Details["order_count"])
	assert.Zero(t, Failed(results), "все проверки пройдены")

	client.AssertExpectations(t)
}

func TestHealth_Check_Failed(t *testing.T) {
	var (
		ctx    = context.Background()
		client = &OrderClientMock{}
	)
	client.On("Authenticate").Return(entity.Token{}, inerr.ErrAuth).Once()
	client.On("Probe", mock.Anything).Return(0, inerr.ErrAuth).Once()

	results := NewHealth(client, discardLogger()).Check(ctx)
	require.Len(t, results, 2)
	assert.False(t, results[0].Passed)
	assert.Contains(t, results[0].Message, "authentication failed")
	assert.False(t, results[1].Passed)
	assert.Equal(t, 2, Failed(results))
}

func TestConfigurationResult(t *testing.T) {
	ok := ConfigurationResult("https://api.bol.loc/retailer", nil)
	assert.True(t, ok.Passed)
	assert.Equal(t, "https://api.bol.loc/retailer", ok.Details["api_base"])

	failed := ConfigurationResult("", errors.New("BOL_CLIENT_ID is required"))
	assert.False(t, failed.Passed)
	assert.Equal(t, CheckConfiguration, failed.Name)

	results := append([]entity.HealthCheckResult{failed}, Skipped()...)
	assert.Equal(t, 3, Failed(results), "проверки API не выполняются без конфигурации")
}
