package repository

import (
	"github.com/ivanpodgorny/bolexport/internal/entity"
	inerr "github.com/ivanpodgorny/bolexport/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestState_Load(t *testing.T) {
	var (
		dir = t.TempDir()
		r   = NewState(dir, discardLogger())
	)

	state, err := r.Load()
	require.NoError(t, err, "первый запуск без файла состояния")
	assert.Empty(t, state, "первый запуск без файла состояния")
	assert.NoFileExists(t, r.Path(), "файл состояния не создается при чтении")

	require.NoError(t, os.WriteFile(
		r.Path(),
		[]byte(`{"processed_order_item_ids": ["2", "1"]}`),
		0o644,
	))

	state, err = r.Load()
	require.NoError(t, err, "чтение сохраненного состояния")
	assert.Equal(t, entity.NewProcessedState("1", "2"), state, "чтение сохраненного состояния")
}

func TestState_Load_Corrupted(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "пустой файл", content: ""},
		{name: "неверный JSON", content: `{"processed_order_item_ids": [`},
		{name: "нет ключа", content: `{"ids": ["1"]}`},
		{name: "неверный тип списка", content: `{"processed_order_item_ids": "1"}`},
		{name: "не объект", content: `["1", "2"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewState(t.TempDir(), discardLogger())
			require.NoError(t, os.WriteFile(r.Path(), []byte(tt.content), 0o644))

			_, err := r.Load()
			assert.ErrorIs(t, err, inerr.ErrStateCorruption)
		})
	}
}

func TestState_AddMany(t *testing.T) {
	var (
		dir = filepath.Join(t.TempDir(), "state")
		r   = NewState(dir, discardLogger())
	)

	_, err := r.Load()
	require.NoError(t, err)

	require.NoError(t, r.AddMany(nil), "пустой список")
	assert.NoFileExists(t, r.Path(), "пустой список не создает файл")

	require.NoError(t, r.AddMany([]string{"b", "a"}), "добавление идентификаторов")
	require.NoError(t, r.AddMany([]string{"c", "a"}), "повторное добавление идентификатора")

	b, err := os.ReadFile(r.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{"processed_order_item_ids": ["a", "b", "c"]}`, string(b), "идентификаторы сохраняются отсортированными")

	state, err := NewState(dir, discardLogger()).Load()
	require.NoError(t, err)
	assert.Equal(t, entity.NewProcessedState("a", "b", "c"), state, "состояние доступно при следующем запуске")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "временные файлы не остаются")
}

func TestState_AddMany_WithoutLoad(t *testing.T) {
	var (
		dir = t.TempDir()
		r   = NewState(dir, discardLogger())
	)
	require.NoError(t, os.WriteFile(r.Path(), []byte(`{"processed_order_item_ids": ["1"]}`), 0o644))

	require.NoError(t, NewState(dir, discardLogger()).AddMany([]string{"2"}))

	state, err := r.Load()
	require.NoError(t, err)
	assert.Equal(t, entity.NewProcessedState("1", "2"), state, "ранее сохраненные идентификаторы не теряются")
}

func TestState_AddMany_Corrupted(t *testing.T) {
	r := NewState(t.TempDir(), discardLogger())
	require.NoError(t, os.WriteFile(r.Path(), []byte("{"), 0o644))

	assert.ErrorIs(t, r.AddMany([]string{"1"}), inerr.ErrStateCorruption)

	b, err := os.ReadFile(r.Path())
	require.NoError(t, err)
	assert.Equal(t, "{", string(b), "поврежденный файл не перезаписывается")
}

func TestState_LoadReturnsCopy(t *testing.T) {
	r := NewState(t.TempDir(), discardLogger())

	state, err := r.Load()
	require.NoError(t, err)
	state.Add("1")

	assert.Equal(t, entity.NewProcessedState(), r.snapshot(), "изменение результата не влияет на хранилище")
}
