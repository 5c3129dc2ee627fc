package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places stored for prices and amounts.
const MoneyScale = 2

func isWholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}

// ProductKind distinguishes stock-tracked goods from labour.
type ProductKind string

const (
	ProductPhysical ProductKind = "physical"
	ProductService  ProductKind = "service"
)

// Product is the catalog view the line-item manager needs.
type Product struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Name     string
	Kind     ProductKind
	Stock    int
	Price    decimal.Decimal
}

// TracksStock reports whether adding the product to an order consumes stock.
func (p *Product) TracksStock() bool {
	return p != nil && p.Kind == ProductPhysical
}

// StockAdjustment is a relative change applied to a product's stock.
type StockAdjustment struct {
	ProductID uuid.UUID
	Delta     int
}

// LineItem is a product consumed by an order. Items are never edited.
type LineItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
	CreatedAt time.Time
}

// NewLineItem validates quantity and price and snapshots the total.
func NewLineItem(orderID, productID uuid.UUID, quantity int, unitPrice decimal.Decimal) (*LineItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if unitPrice.IsNegative() || !isWholeCents(unitPrice) {
		return nil, ErrInvalidPrice
	}
	return &LineItem{
		ID:        uuid.New(),
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Total:     unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}, nil
}

// ConsumeStock returns the adjustment for attaching item of product, or nil
// when the product is not stock-tracked.
func ConsumeStock(product *Product, quantity int) *StockAdjustment {
	if !product.TracksStock() {
		return nil
	}
	return &StockAdjustment{ProductID: product.ID, Delta: -quantity}
}

// RestoreStock is the inverse of ConsumeStock.
func RestoreStock(product *Product, quantity int) *StockAdjustment {
	if !product.TracksStock() {
		return nil
	}
	return &StockAdjustment{ProductID: product.ID, Delta: quantity}
}

// PaymentMethod is how the customer paid.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentOther    PaymentMethod = "other"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentOther:
		return true
	default:
		return false
	}
}

// Payment is an append-only ledger entry against an order.
type Payment struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	Amount     decimal.Decimal
	Method     PaymentMethod
	Note       *string
	RecordedBy uuid.UUID
	CreatedAt  time.Time
}

// NewPayment validates the amount and method.
func NewPayment(orderID uuid.UUID, amount decimal.Decimal, method PaymentMethod, note string, recordedBy uuid.UUID) (*Payment, error) {
	if !amount.IsPositive() || !isWholeCents(amount) {
		return nil, ErrInvalidAmount
	}
	if !method.IsValid() {
		return nil, ErrInvalidMethod
	}
	payment := &Payment{
		ID:         uuid.New(),
		OrderID:    orderID,
		Amount:     amount,
		Method:     method,
		RecordedBy: recordedBy,
	}
	if note = strings.TrimSpace(note); note != "" {
		payment.Note = &note
	}
	return payment, nil
}

// LedgerSummary is derived on every read and never stored.
type LedgerSummary struct {
	TotalCost   decimal.Decimal
	TotalPaid   decimal.Decimal
	Balance     decimal.Decimal
	IsFullyPaid bool
}

// SumItems adds up line item totals.
func SumItems(items []*LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Total)
	}
	return total
}

// SumPayments adds up payment amounts.
func SumPayments(payments []*Payment) decimal.Decimal {
	total := decimal.Zero
	for _, payment := range payments {
		total = total.Add(payment.Amount)
	}
	return total
}

// Summarize computes the ledger for an order. An order with no cost is never
// considered fully paid.
func Summarize(items []*LineItem, payments []*Payment) LedgerSummary {
	cost := SumItems(items)
	paid := SumPayments(payments)
	balance := cost.Sub(paid)
	return LedgerSummary{
		TotalCost:   cost,
		TotalPaid:   paid,
		Balance:     balance,
		IsFullyPaid: !balance.IsPositive() && cost.IsPositive(),
	}
}
