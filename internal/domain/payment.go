package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the lifecycle state of an order payment.
type PaymentStatus int

const (
	PaymentPending PaymentStatus = iota + 1
	PaymentPaid
	PaymentFailed
	PaymentCancelled
)

var ErrPaymentState = errors.New("payment: invalid status transition")

// IsValid returns true if the status is one of the known values.
func (s PaymentStatus) IsValid() bool {
	return s >= PaymentPending && s <= PaymentCancelled
}

func (s PaymentStatus) String() string {
	switch s {
	case PaymentPending:
		return "Pending"
	case PaymentPaid:
		return "Paid"
	case PaymentFailed:
		return "Failed"
	case PaymentCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// PaymentInfo captures payment state for an order. The session and intent
// identifiers are fixed at construction.
type PaymentInfo struct {
	Status       PaymentStatus
	PayablePrice decimal.Decimal
	PaymentDate  *time.Time

	sessionID       string
	paymentIntentID string
}

// NewPaymentInfo builds a PaymentInfo with its provider identifiers.
func NewPaymentInfo(status PaymentStatus, payablePrice decimal.Decimal, sessionID, paymentIntentID string) PaymentInfo {
	return PaymentInfo{
		Status:          status,
		PayablePrice:    payablePrice,
		sessionID:       sessionID,
		paymentIntentID: paymentIntentID,
	}
}

func (p PaymentInfo) SessionID() string { return p.sessionID }

func (p PaymentInfo) PaymentIntentID() string { return p.paymentIntentID }

// MarkPaid records a successful payment at the given time.
func (p *PaymentInfo) MarkPaid(at time.Time) error {
	if p.Status != PaymentPending && p.Status != PaymentFailed {
		return ErrPaymentState
	}
	at = at.UTC()
	p.Status = PaymentPaid
	p.PaymentDate = &at
	return nil
}

func (p *PaymentInfo) MarkFailed() error {
	if p.Status != PaymentPending {
		return ErrPaymentState
	}
	p.Status = PaymentFailed
	return nil
}

// Cancel moves an unpaid payment to Cancelled.
func (p *PaymentInfo) Cancel() error {
	if p.Status == PaymentPaid || p.Status == PaymentCancelled {
		return ErrPaymentState
	}
	p.Status = PaymentCancelled
	return nil
}
