package service

import (
	"context"
	"errors"
	"fmt"
	"github.com/ivanpodgorny/bolexport/internal/entity"
	inerr "github.com/ivanpodgorny/bolexport/internal/errors"
	"log/slog"
	"time"
)

// Export выполняет одну выгрузку: получает заказы из API, отбрасывает уже выгруженные
// позиции, дописывает новые в файл выгрузки и сохраняет их идентификаторы в состоянии.
type Export struct {
	client    OrderClient
	state     StateRepository
	sink      ExportSink
	validator Validator
	filter    entity.OrderFilter
	logger    *slog.Logger
}

type OrderClient interface {
	Authenticate(ctx context.Context) (entity.Token, error)
	ListOrders(ctx context.Context, filter entity.OrderFilter) ([]entity.OrderSummary, error)
	GetOrder(ctx context.Context, orderID string) (entity.OrderDetail, error)
}

type StateRepository interface {
	Load() (entity.ProcessedState, error)
	AddMany(ids []string) error
}

type ExportSink interface {
	Append(date time.Time, items []entity.OrderItem) (string, error)
	Path(date time.Time) string
}

type Validator interface {
	Var(ctx context.Context, field any, tag string) error
}

func NewExport(c OrderClient, s StateRepository, sink ExportSink, v Validator, logger *slog.Logger) *Export {
	return &Export{
		client:    c,
		state:     s,
		sink:      sink,
		validator: v,
		filter:    entity.DefaultOrderFilter(),
		logger:    logger,
	}
}

// Run выполняет выгрузку за дату date. Ошибки авторизации, чтения состояния и получения
// списка заказов прерывают выгрузку. Ошибка получения или разбора отдельного заказа
// записывается в журнал, остальные заказы обрабатываются. При dryRun файл выгрузки
// и состояние не изменяются.
func (s *Export) Run(ctx context.Context, date time.Time, dryRun bool) (entity.RunSummary, error) {
	summary := entity.RunSummary{
		ExportDate: date,
		DryRun:     dryRun,
	}

	if _, err := s.client.Authenticate(ctx); err != nil {
		return summary, err
	}

	processed, err := s.state.Load()
	if err != nil {
		return summary, err
	}

	s.logger.Info(
		"начало выгрузки",
		slog.String("date", date.Format("2006-01-02")),
		slog.Bool("dry_run", dryRun),
		slog.Int("processed", len(processed)),
	)

	orders, err := s.client.ListOrders(ctx, s.filter)
	if err != nil {
		return summary, err
	}
	summary.OrdersSeen = len(orders)

	var (
		items []entity.OrderItem
		seen  = entity.NewProcessedState()
	)
	for _, order := range orders {
		detail, err := s.client.GetOrder(ctx, order.OrderID)
		if err != nil {
			if errors.Is(err, inerr.ErrAuth) || ctx.Err() != nil {
				return summary, err
			}

			summary.OrdersFailed++
			s.logger.Error(
				"ошибка получения заказа",
				slog.String("order_id", order.OrderID),
				slog.String("error", err.Error()),
			)

			continue
		}

		for _, line := range detail.Lines {
			item, err := s.mapOrderItem(ctx, date, detail, line)
			if err != nil {
				summary.ItemsInvalid++
				s.logger.Warn(
					"позиция заказа пропущена",
					slog.String("order_id", detail.OrderID),
					slog.String("error", err.Error()),
				)

				continue
			}

			if processed.Contains(item.OrderItemID) || seen.Contains(item.OrderItemID) {
				summary.ItemsSkipped++
				s.logger.Debug("позиция уже выгружена", slog.String("order_item_id", item.OrderItemID))

				continue
			}

			seen.Add(item.OrderItemID)
			items = append(items, item)
		}
	}
	summary.ItemsNew = len(items)

	if dryRun {
		summary.OutputPath = s.sink.Path(date)
		s.logger.Info(
			"пробный запуск: файл выгрузки и состояние не изменяются",
			slog.Int("items_new", len(items)),
			slog.String("path", summary.OutputPath),
		)
		for _, item := range items {
			s.logger.Info(
				"позиция для выгрузки",
				slog.String("order_item_id", item.OrderItemID),
				slog.String("title", item.Title),
			)
		}

		return summary, nil
	}

	path, err := s.sink.Append(date, items)
	if err != nil {
		return summary, fmt.Errorf("export %d items: %w", len(items), err)
	}
	summary.OutputPath = path

	if len(items) > 0 {
		ids := make([]string, 0, len(items))
		for _, item := range items {
			ids = append(ids, item.OrderItemID)
		}

		if err := s.state.AddMany(ids); err != nil {
			return summary, fmt.Errorf("save state: %w", err)
		}
	}

	s.logger.Info(
		"выгрузка завершена",
		slog.Int("orders", summary.OrdersSeen),
		slog.Int("orders_failed", summary.OrdersFailed),
		slog.Int("items_new", summary.ItemsNew),
		slog.Int("items_skipped", summary.ItemsSkipped),
		slog.Int("items_invalid", summary.ItemsInvalid),
		slog.String("path", path),
	)

	return summary, nil
}

func (s *Export) mapOrderItem(
	ctx context.Context,
	date time.Time,
	detail entity.OrderDetail,
	line entity.OrderLine,
) (entity.OrderItem, error) {
	if line.OrderItemID == "" {
		return entity.OrderItem{}, &inerr.MappingError{OrderID: detail.OrderID, Field: "orderItemId"}
	}

	if line.Quantity <= 0 {
		return entity.OrderItem{}, &inerr.MappingError{
			OrderID: detail.OrderID,
			Field:   "quantity",
			Reason:  fmt.Sprintf("must be positive, got %d", line.Quantity),
		}
	}

	if line.EAN != "" {
		if err := s.validator.Var(ctx, line.EAN, "ean"); err != nil {
			s.logger.Warn(
				"неверная контрольная цифра EAN",
				slog.String("order_item_id", line.OrderItemID),
				slog.String("ean", line.EAN),
			)
		}
	}

	return entity.OrderItem{
		ExportDate:       date,
		OrderID:          detail.OrderID,
		OrderDateTime:    detail.OrderDateTime,
		OrderItemID:      line.OrderItemID,
		EAN:              line.EAN,
		Title:            line.Title,
		Quantity:         line.Quantity,
		FulfilmentMethod: s.filter.FulfilmentMethod,
	}, nil
}
