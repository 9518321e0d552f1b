package billing

import (
	"errors"
	"testing"

	"tagihin/backend/internal/domain"
)

func pendingBill(totalCents, paidCents int64) domain.Bill {
	return domain.Bill{
		ID:              "bill-1",
		BillNumber:      "INV-20260829-0001",
		TotalCents:      totalCents,
		AmountPaidCents: paidCents,
		RemainingCents:  totalCents - paidCents,
		Status:          StatusForRemaining(totalCents - paidCents),
	}
}

func TestValidatePaymentBounds(t *testing.T) {
	bill := pendingBill(1000, 400)

	if err := ValidatePayment(bill, 600); err != nil {
		t.Fatalf("payment of exactly the remaining balance must pass: %v", err)
	}
	if err := ValidatePayment(bill, 601); !errors.Is(err, ErrExceedsRemaining) {
		t.Fatalf("expected ErrExceedsRemaining for overshoot, got %v", err)
	}
	if err := ValidatePayment(bill, 0); !errors.Is(err, ErrInvalidPaymentAmount) {
		t.Fatalf("expected ErrInvalidPaymentAmount for zero, got %v", err)
	}
	if err := ValidatePayment(bill, -5); !errors.Is(err, ErrInvalidPaymentAmount) {
		t.Fatalf("expected ErrInvalidPaymentAmount for negative, got %v", err)
	}
}

func TestValidatePaymentOnSettledBill(t *testing.T) {
	bill := pendingBill(1000, 1000)
	if err := ValidatePayment(bill, 1); !errors.Is(err, ErrExceedsRemaining) {
		t.Fatalf("any payment against a settled bill must fail, got %v", err)
	}
}

func TestPreviewPayment(t *testing.T) {
	bill := pendingBill(1000, 400)

	preview := PreviewPayment(bill, 600)
	if preview.RemainingBeforeCents != 600 {
		t.Fatalf("expected remaining before 600, got %d", preview.RemainingBeforeCents)
	}
	if preview.RemainingAfterCents != 0 {
		t.Fatalf("expected remaining after 0, got %d", preview.RemainingAfterCents)
	}

	partial := PreviewPayment(bill, 250)
	if partial.RemainingAfterCents != 350 {
		t.Fatalf("expected remaining after 350, got %d", partial.RemainingAfterCents)
	}
}

func TestCheckInvariant(t *testing.T) {
	if err := CheckInvariant(pendingBill(1000, 400)); err != nil {
		t.Fatalf("consistent bill must pass: %v", err)
	}

	broken := pendingBill(1000, 400)
	broken.RemainingCents = 700
	if err := CheckInvariant(broken); !errors.Is(err, ErrLedgerInvariant) {
		t.Fatalf("expected ErrLedgerInvariant for paid+remaining != total, got %v", err)
	}

	overpaid := domain.Bill{TotalCents: 1000, AmountPaidCents: 1100, RemainingCents: -100}
	if err := CheckInvariant(overpaid); !errors.Is(err, ErrLedgerInvariant) {
		t.Fatalf("expected ErrLedgerInvariant for overpayment, got %v", err)
	}
}

func TestStatusForRemaining(t *testing.T) {
	if got := StatusForRemaining(0); got != domain.BillStatusCompleted {
		t.Fatalf("expected completed at zero remaining, got %q", got)
	}
	if got := StatusForRemaining(1); got != domain.BillStatusPending {
		t.Fatalf("expected pending for outstanding balance, got %q", got)
	}
}
