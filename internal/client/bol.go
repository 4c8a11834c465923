package client

import (
	"context"
	"fmt"
	"github.com/imroc/req/v3"
	"github.com/ivanpodgorny/bolexport/internal/entity"
	inerr "github.com/ivanpodgorny/bolexport/internal/errors"
	"golang.org/x/time/rate"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	tokenRefreshMargin = 30 * time.Second
	defaultTokenTTL    = 300 * time.Second
	minRequestInterval = 100 * time.Millisecond
	ordersPageSize     = 50
	maxOrderPages      = 100
	retailerMediaType  = "application/vnd.retailer.v10+json"
)

var placedDateTimeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"}

// Bol - клиент Retailer API bol.com. Хранит токен доступа, выдерживает паузу между
// запросами и повторяет запросы, завершившиеся временной ошибкой. Методы клиента
// не предназначены для одновременного вызова из нескольких горутин.
type Bol struct {
	req          *req.Client
	tokenURL     string
	clientID     string
	clientSecret string
	token        entity.Token
	limiter      *rate.Limiter
	retry        RetryPolicy
	now          func() time.Time
	logger       *slog.Logger
}

type Option func(*Bol)

type tokenPayload struct {
	AccessToken string  `json:"access_token"`
	ExpiresIn   float64 `json:"expires_in"`
}

type ordersPayload struct {
	Orders []struct {
		OrderID    string `json:"orderId"`
		OrderIDAlt string `json:"order_id"`
	} `json:"orders"`
}

type orderPayload struct {
	OrderID             string             `json:"orderId"`
	OrderIDAlt          string             `json:"order_id"`
	OrderPlacedDateTime string             `json:"orderPlacedDateTime"`
	OrderDateTime       string             `json:"orderDateTime"`
	OrderItems          []orderItemPayload `json:"orderItems"`
}

type orderItemPayload struct {
	OrderItemID    string `json:"orderItemId"`
	OrderItemIDAlt string `json:"order_item_id"`
	EAN            string `json:"ean"`
	Quantity       int    `json:"quantity"`
	Product        struct {
		EAN   string `json:"ean"`
		Title string `json:"title"`
	} `json:"product"`
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Bol) {
		c.retry = p
	}
}

// WithMinInterval задает минимальный интервал между запросами. Нулевой интервал
// отключает ограничение.
func WithMinInterval(d time.Duration) Option {
	return func(c *Bol) {
		limit := rate.Inf
		if d > 0 {
			limit = rate.Every(d)
		}
		c.limiter = rate.NewLimiter(limit, 1)
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Bol) {
		c.now = now
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Bol) {
		c.logger = l
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Bol) {
		c.req.SetTimeout(d)
	}
}

func NewBol(apiBase, tokenURL, clientID, clientSecret string, opts ...Option) *Bol {
	c := &Bol{
		req: req.C().
			SetBaseURL(strings.TrimRight(apiBase, "/")).
			SetTimeout(30 * time.Second),
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		limiter:      rate.NewLimiter(rate.Every(minRequestInterval), 1),
		retry:        DefaultRetryPolicy(),
		now:          time.Now,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.req.OnBeforeRequest(func(_ *req.Client, r *req.Request) error {
		return c.limiter.Wait(r.Context())
	})

	return c
}

// Authenticate возвращает токен доступа. Токен запрашивается заново, только если до
// истечения срока действия сохраненного токена осталось меньше 30 секунд. Ответ сервера
// авторизации с кодом, отличным от 2xx, приводит к ошибке errors.ErrAuth без повторных попыток.
func (c *Bol) Authenticate(ctx context.Context) (entity.Token, error) {
	if c.token.ValidAt(c.now(), tokenRefreshMargin) {
		return c.token, nil
	}

	c.logger.Debug("запрос нового токена доступа", slog.String("url", c.tokenURL))

	var payload tokenPayload
	resp, err := c.retry.withCondition(onlyNetworkErrors).
		apply(c.req.R(), c.retryLogger("token")).
		SetContext(ctx).
		SetBasicAuth(c.clientID, c.clientSecret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetHeader("Accept", "application/json").
		SetSuccessResult(&payload).
		Post(c.tokenURL)
	if err != nil {
		return entity.Token{}, fmt.Errorf("%w: token request: %v", inerr.ErrAPI, err)
	}

	if !resp.IsSuccessState() {
		return entity.Token{}, fmt.Errorf("%w: token endpoint responded with status code %d", inerr.ErrAuth, resp.StatusCode)
	}

	if payload.AccessToken == "" {
		return entity.Token{}, fmt.Errorf("%w: token endpoint returned empty access token", inerr.ErrAuth)
	}

	ttl := defaultTokenTTL
	if payload.ExpiresIn > 0 {
		ttl = time.Duration(payload.ExpiresIn * float64(time.Second))
	}

	c.token = entity.Token{
		AccessToken: payload.AccessToken,
		ExpiresAt:   c.now().Add(ttl),
	}
	c.logger.Info("получен токен доступа", slog.Duration("expires_in", ttl))

	return c.token, nil
}

// ListOrders возвращает заказы, соответствующие фильтру. Страницы запрашиваются
// по очереди, пока очередная страница не окажется неполной. Заказы без идентификатора
// пропускаются с предупреждением в журнале.
func (c *Bol) ListOrders(ctx context.Context, filter entity.OrderFilter) ([]entity.OrderSummary, error) {
	var orders []entity.OrderSummary

	for page := 1; page <= maxOrderPages; page++ {
		payload, err := c.ordersPage(ctx, filter, page)
		if err != nil {
			return nil, err
		}

		for _, o := range payload.Orders {
			id := firstNonEmpty(o.OrderID, o.OrderIDAlt)
			if id == "" {
				c.logger.Warn(
					"заказ без идентификатора пропущен",
					slog.Int("page", page),
					slog.Any("error", &inerr.MappingError{Field: "orderId"}),
				)

				continue
			}

			orders = append(orders, entity.OrderSummary{OrderID: id})
		}

		if len(payload.Orders) < ordersPageSize {
			break
		}
	}

	c.logger.Info(
		"получен список заказов",
		slog.Int("count", len(orders)),
		slog.String("fulfilment_method", string(filter.FulfilmentMethod)),
	)

	return orders, nil
}

// Probe запрашивает только первую страницу списка заказов и возвращает количество заказов на ней.
func (c *Bol) Probe(ctx context.Context, filter entity.OrderFilter) (int, error) {
	payload, err := c.ordersPage(ctx, filter, 1)
	if err != nil {
		return 0, err
	}

	return len(payload.Orders), nil
}

// GetOrder возвращает заказ с позициями. Поля, которые API отдает под разными именами,
// приводятся к одному виду. Если дата оформления заказа отсутствует под всеми известными
// именами, возвращает *errors.MappingError.
func (c *Bol) GetOrder(ctx context.Context, orderID string) (entity.OrderDetail, error) {
	var payload orderPayload
	err := c.get(ctx, "get order "+orderID, "/orders/{orderId}", &payload, func(r *req.Request) *req.Request {
		return r.SetPathParam("orderId", orderID)
	})
	if err != nil {
		return entity.OrderDetail{}, err
	}

	c.logger.Debug("получены данные заказа", slog.String("order_id", orderID))

	return normalizeOrder(orderID, payload)
}

func (c *Bol) ordersPage(ctx context.Context, filter entity.OrderFilter, page int) (ordersPayload, error) {
	var payload ordersPayload
	err := c.get(ctx, "list orders", "/orders", &payload, func(r *req.Request) *req.Request {
		if filter.FulfilmentMethod != "" {
			r.SetQueryParam("fulfilment-method", string(filter.FulfilmentMethod))
		}
		if filter.Status != "" {
			r.SetQueryParam("status", string(filter.Status))
		}

		return r.SetQueryParam("page", strconv.Itoa(page))
	})

	return payload, err
}

func (c *Bol) get(ctx context.Context, op, path string, result any, prepare func(*req.Request) *req.Request) error {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return err
	}

	r := c.retry.
		apply(c.req.R(), c.retryLogger(op)).
		SetContext(ctx).
		SetBearerAuthToken(token.AccessToken).
		SetHeader("Accept", retailerMediaType).
		SetSuccessResult(result)
	resp, err := prepare(r).Get(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", inerr.ErrAPI, op, err)
	}

	return c.checkStatus(op, resp)
}

func (c *Bol) checkStatus(op string, resp *req.Response) error {
	code := resp.StatusCode
	switch {
	case resp.IsSuccessState():
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		if code == http.StatusUnauthorized {
			c.token = entity.Token{}
		}

		return fmt.Errorf("%w: %s: server responded with status code %d", inerr.ErrAuth, op, code)
	case isTransientStatus(code):
		return fmt.Errorf("%w: %s: server responded with status code %d", inerr.ErrAPI, op, code)
	default:
		return fmt.Errorf("%w: %s: server responded with status code %d", inerr.ErrRequest, op, code)
	}
}

func (c *Bol) retryLogger(op string) req.RetryHookFunc {
	attempt := 1

	return func(resp *req.Response, err error) {
		attempt++
		attrs := []any{slog.String("op", op), slog.Int("attempt", attempt)}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		} else if resp != nil {
			attrs = append(attrs, slog.Int("status", resp.StatusCode))
		}

		c.logger.Warn("повтор запроса после временной ошибки", attrs...)
	}
}

func normalizeOrder(requestedID string, p orderPayload) (entity.OrderDetail, error) {
	orderID := firstNonEmpty(p.OrderID, p.OrderIDAlt, requestedID)

	placed := firstNonEmpty(p.OrderPlacedDateTime, p.OrderDateTime)
	if placed == "" {
		return entity.OrderDetail{}, &inerr.MappingError{OrderID: orderID, Field: "orderPlacedDateTime"}
	}

	placedAt, err := parsePlacedDateTime(placed)
	if err != nil {
		return entity.OrderDetail{}, &inerr.MappingError{
			OrderID: orderID,
			Field:   "orderPlacedDateTime",
			Reason:  fmt.Sprintf("has invalid value %q", placed),
		}
	}

	detail := entity.OrderDetail{
		OrderID:       orderID,
		OrderDateTime: placedAt,
		Lines:         make([]entity.OrderLine, 0, len(p.OrderItems)),
	}
	for _, item := range p.OrderItems {
		detail.Lines = append(detail.Lines, entity.OrderLine{
			OrderItemID: firstNonEmpty(item.OrderItemID, item.OrderItemIDAlt),
			EAN:         firstNonEmpty(item.Product.EAN, item.EAN),
			Title:       item.Product.Title,
			Quantity:    item.Quantity,
		})
	}

	return detail, nil
}

// parsePlacedDateTime разбирает дату в формате RFC 3339. Дата без смещения считается
// указанной в UTC.
func parsePlacedDateTime(value string) (time.Time, error) {
	var err error
	for _, layout := range placedDateTimeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
