package entity

import "time"

type FulfilmentMethod string

const (
	FulfilmentMethodFBR FulfilmentMethod = "FBR"
	FulfilmentMethodFBB FulfilmentMethod = "FBB"
)

type OrderStatus string

const (
	OrderStatusOpen    OrderStatus = "OPEN"
	OrderStatusShipped OrderStatus = "SHIPPED"
	OrderStatusAll     OrderStatus = "ALL"
)

// OrderItem - строка выгрузки. Порядок полей совпадает с порядком колонок в файле.
type OrderItem struct {
	ExportDate       time.Time        `json:"export_date"`
	OrderID          string           `json:"order_id"`
	OrderDateTime    time.Time        `json:"order_date_time"`
	OrderItemID      string           `json:"order_item_id"`
	EAN              string           `json:"ean"`
	Title            string           `json:"title"`
	Quantity         int              `json:"quantity"`
	FulfilmentMethod FulfilmentMethod `json:"fulfilment_method"`
}

type OrderFilter struct {
	FulfilmentMethod FulfilmentMethod
	Status           OrderStatus
}

type OrderSummary struct {
	OrderID string
}

type OrderDetail struct {
	OrderID       string
	OrderDateTime time.Time
	Lines         []OrderLine
}

type OrderLine struct {
	OrderItemID string
	EAN         string
	Title       string
	Quantity    int
}

func DefaultOrderFilter() OrderFilter {
	return OrderFilter{
		FulfilmentMethod: FulfilmentMethodFBR,
		Status:           OrderStatusOpen,
	}
}
