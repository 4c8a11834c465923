package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/google/renameio/v2"
	"github.com/ivanpodgorny/bolexport/internal/entity"
	inerr "github.com/ivanpodgorny/bolexport/internal/errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

const stateFileName = "processed_orders.json"

// State хранит идентификаторы выгруженных позиций заказов в JSON-файле.
// Предполагается, что файлом владеет один процесс.
type State struct {
	path      string
	processed entity.ProcessedState
	loaded    bool
	logger    *slog.Logger
}

type stateDocument struct {
	ProcessedOrderItemIDs *[]string `json:"processed_order_item_ids"`
}

func NewState(dir string, logger *slog.Logger) *State {
	return &State{
		path:   filepath.Join(dir, stateFileName),
		logger: logger,
	}
}

func (r *State) Path() string {
	return r.path
}

// Load читает множество выгруженных позиций. Если файла еще нет, возвращает пустое
// множество. Если файл не удается разобрать, возвращает ошибку errors.ErrStateCorruption.
func (r *State) Load() (entity.ProcessedState, error) {
	b, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		r.logger.Info("файл состояния не найден, начинаем с пустого состояния", slog.String("path", r.path))
		r.processed = entity.NewProcessedState()
		r.loaded = true

		return r.snapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", inerr.ErrStateCorruption, r.path, err)
	}

	var doc stateDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", inerr.ErrStateCorruption, r.path, err)
	}
	if doc.ProcessedOrderItemIDs == nil {
		return nil, fmt.Errorf("%w: %s: processed_order_item_ids key is missing", inerr.ErrStateCorruption, r.path)
	}

	r.processed = entity.NewProcessedState(*doc.ProcessedOrderItemIDs...)
	r.loaded = true
	r.logger.Debug("загружено состояние", slog.Int("processed", len(r.processed)))

	return r.snapshot(), nil
}

// AddMany добавляет идентификаторы в множество и атомарно перезаписывает файл целиком.
// При пустом списке файл не изменяется.
func (r *State) AddMany(ids []string) error {
	if len(ids) == 0 {
		r.logger.Debug("нет новых идентификаторов для сохранения")

		return nil
	}

	if !r.loaded {
		if _, err := r.Load(); err != nil {
			return err
		}
	}

	next := r.snapshot()
	added := next.Add(ids...)

	b, err := json.MarshalIndent(stateDocument{ProcessedOrderItemIDs: ptr(next.Sorted())}, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}

	if err := renameio.WriteFile(r.path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write state %s: %w", r.path, err)
	}

	r.processed = next
	r.logger.Info(
		"состояние обновлено",
		slog.Int("added", added),
		slog.Int("total", len(next)),
	)

	return nil
}

func (r *State) snapshot() entity.ProcessedState {
	s := make(entity.ProcessedState, len(r.processed))
	for id := range r.processed {
		s[id] = struct{}{}
	}

	return s
}

func ptr[T any](v T) *T {
	return &v
}
