package model

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	StatusOrderPlaced       OrderStatus = "Order Placed"
	StatusPending           OrderStatus = "pending"
	StatusConfirmed         OrderStatus = "confirmed"
	StatusShipped           OrderStatus = "shipped"
	StatusDelivered         OrderStatus = "delivered"
	StatusCancelled         OrderStatus = "cancelled"
	StatusReturnAssigned    OrderStatus = "return_assigned"
	StatusReplaceAssigned   OrderStatus = "replace_assigned"
	StatusReturnedCompleted OrderStatus = "returned_completed"
	StatusReplaceCompleted  OrderStatus = "replace_completed"
)

var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	StatusOrderPlaced: {
		StatusPending, StatusConfirmed, StatusShipped, StatusDelivered,
		StatusCancelled, StatusReturnAssigned, StatusReplaceAssigned,
	},
	StatusReturnAssigned:  {StatusReturnedCompleted},
	StatusReplaceAssigned: {StatusReplaceCompleted},
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusOrderPlaced, StatusPending, StatusConfirmed, StatusShipped, StatusDelivered,
		StatusCancelled, StatusReturnAssigned, StatusReplaceAssigned,
		StatusReturnedCompleted, StatusReplaceCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is reachable from s in one step.
// Staying in the same status is always allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	return slices.Contains(orderStatusTransitions[s], next)
}

// PaymentStatus is the payment state of an order.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

var paymentStatusTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending: {PaymentPaid, PaymentFailed},
	PaymentPaid:    {PaymentRefunded},
	PaymentFailed:  {PaymentRefunded},
}

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if s == next {
		return true
	}
	return slices.Contains(paymentStatusTransitions[s], next)
}

// Order represents a placed order shared by its buyer and the sellers of its lines.
type Order struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	BuyerID            string          `json:"buyerId" db:"buyer_id"`
	AddressRef         string          `json:"addressRef" db:"address_ref"`
	SpecialRequest     *string         `json:"specialRequest,omitempty" db:"special_request"`
	TotalAmount        decimal.Decimal `json:"totalAmount" db:"total_amount"`
	Status             OrderStatus     `json:"status" db:"status"`
	PaymentStatus      PaymentStatus   `json:"paymentStatus" db:"payment_status"`
	CancellationReason *string         `json:"cancellationReason,omitempty" db:"cancellation_reason"`
	RefundReason       *string         `json:"refundReason,omitempty" db:"refund_reason"`
	RefundDate         *time.Time      `json:"refundDate,omitempty" db:"refund_date"`
	InvoiceRef         *string         `json:"invoiceRef,omitempty" db:"invoice_ref"`
	GatewayOrderID     *string         `json:"gatewayOrderId,omitempty" db:"gateway_order_id"`
	GatewayPaymentID   *string         `json:"gatewayPaymentId,omitempty" db:"gateway_payment_id"`
	Lines              []OrderLine     `json:"lines"`
	Notes              []AdminNote     `json:"notes,omitempty"`
	CreatedAt          time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderLine is a purchased product snapshot within an order.
type OrderLine struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	OrderID           uuid.UUID       `json:"-" db:"order_id"`
	ProductID         string          `json:"productId" db:"product_id"`
	ProductName       string          `json:"productName" db:"product_name"`
	Quantity          int             `json:"quantity" db:"quantity"`
	UnitPrice         decimal.Decimal `json:"unitPrice" db:"unit_price"`
	Selection         Selection       `json:"selection,omitempty" db:"selection"`
	TrackingURL       *string         `json:"trackingUrl,omitempty" db:"tracking_url"`
	TrackingUpdatedAt *time.Time      `json:"trackingUpdatedAt,omitempty" db:"tracking_updated_at"`
}

// AdminNote is a seller-private annotation on an order.
type AdminNote struct {
	SellerID  string    `json:"sellerId" db:"seller_id"`
	Note      string    `json:"note" db:"note"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ProductIDs returns the distinct product ids referenced by the order lines.
func (o *Order) ProductIDs() []string {
	seen := make(map[string]struct{}, len(o.Lines))
	ids := make([]string, 0, len(o.Lines))
	for _, line := range o.Lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	return ids
}

// HasProduct reports whether any line references productID.
func (o *Order) HasProduct(productID string) bool {
	for _, line := range o.Lines {
		if line.ProductID == productID {
			return true
		}
	}
	return false
}

// NoteFor returns the note held by sellerID, if any.
func (o *Order) NoteFor(sellerID string) *AdminNote {
	for i := range o.Notes {
		if o.Notes[i].SellerID == sellerID {
			return &o.Notes[i]
		}
	}
	return nil
}

// OrderRequest represents the request payload for creating an order.
// When Lines is empty the buyer's cart is submitted.
type OrderRequest struct {
	AddressRef     string             `json:"addressRef"`
	SpecialRequest *string            `json:"specialRequest,omitempty"`
	Lines          []OrderLineRequest `json:"lines,omitempty"`
}

// OrderLineRequest represents a single line in an order request.
type OrderLineRequest struct {
	ProductID string    `json:"productId"`
	Selection Selection `json:"selection,omitempty"`
	Quantity  int       `json:"quantity"`
}

// OrderCreated is the response payload for a placed order.
type OrderCreated struct {
	OrderID     uuid.UUID       `json:"orderId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// OrderUpdate carries seller-side changes. Nil fields are left untouched.
type OrderUpdate struct {
	Status             *OrderStatus   `json:"status,omitempty"`
	PaymentStatus      *PaymentStatus `json:"paymentStatus,omitempty"`
	CancellationReason *string        `json:"cancellationReason,omitempty"`
	RefundReason       *string        `json:"refundReason,omitempty"`
	TrackingLink       *string        `json:"trackingLink,omitempty"`
	ProductID          *string        `json:"productId,omitempty"`
	InvoiceRef         *string        `json:"invoiceRef,omitempty"`
}

// NoteRequest represents the request payload for a seller note.
type NoteRequest struct {
	Note string `json:"note"`
}

// SpecialRequestUpdate represents the buyer's special request payload.
type SpecialRequestUpdate struct {
	SpecialRequest string `json:"specialRequest"`
}

// PaymentVerificationRequest is the payment gateway callback payload.
type PaymentVerificationRequest struct {
	GatewayOrderID string `json:"gatewayOrderId"`
	PaymentID      string `json:"paymentId"`
	Signature      string `json:"signature"`
}

// PaymentVerification is the outcome of a payment callback check.
type PaymentVerification struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}
