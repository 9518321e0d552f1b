package billing

import (
	"errors"

	"tagihin/backend/internal/domain"
)

var (
	ErrInvalidPaymentAmount = errors.New("invalid payment amount")
	ErrExceedsRemaining     = errors.New("payment exceeds remaining balance")
	ErrLedgerInvariant      = errors.New("bill accounting invariant violated")
)

// RemainingBefore is the outstanding balance owed on a bill, floored at zero.
func RemainingBefore(bill domain.Bill) int64 {
	remaining := bill.TotalCents - bill.AmountPaidCents
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// ValidatePayment checks an incremental payment against the bill's current
// state. A payment must be positive and can never overshoot what is owed.
// Validation has no side effects; on failure the caller's state is unchanged.
func ValidatePayment(bill domain.Bill, amountCents int64) error {
	if amountCents <= 0 {
		return ErrInvalidPaymentAmount
	}
	if amountCents > RemainingBefore(bill) {
		return ErrExceedsRemaining
	}
	return nil
}

// PreviewPayment derives the display-only before/after estimate shown prior
// to backend confirmation. The result is never authoritative: the persisted
// bill returned by the store is the source of truth for post-payment state.
func PreviewPayment(bill domain.Bill, amountCents int64) domain.PaymentPreview {
	before := RemainingBefore(bill)
	after := before - amountCents
	if after < 0 {
		after = 0
	}
	return domain.PaymentPreview{
		RemainingBeforeCents: before,
		RemainingAfterCents:  after,
	}
}

// CheckInvariant verifies the accounting invariant every persisted bill must
// satisfy after reconciliation: amountPaid + remaining == total and
// 0 <= amountPaid <= total.
func CheckInvariant(bill domain.Bill) error {
	if bill.AmountPaidCents < 0 || bill.AmountPaidCents > bill.TotalCents {
		return ErrLedgerInvariant
	}
	if bill.AmountPaidCents+bill.RemainingCents != bill.TotalCents {
		return ErrLedgerInvariant
	}
	return nil
}

// StatusForRemaining maps a bill's outstanding balance to its accounting
// status. Cancellation is a lifecycle decision outside this mapping.
func StatusForRemaining(remainingCents int64) string {
	if remainingCents == 0 {
		return domain.BillStatusCompleted
	}
	return domain.BillStatusPending
}
