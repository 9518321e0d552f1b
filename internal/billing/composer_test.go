package billing

import (
	"errors"
	"testing"

	"tagihin/backend/internal/domain"
)

func testProduct(sku string, priceCents int64) domain.Product {
	return domain.Product{
		SKU:        sku,
		Name:       "Produk " + sku,
		Category:   "grocery",
		PriceCents: priceCents,
		Stock:      25,
		Active:     true,
	}
}

func TestAddItemMergesRepeatedProduct(t *testing.T) {
	c := NewComposer()

	if err := c.AddItem(testProduct("P1", 500), 2, 500); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	totals := c.Totals()
	if totals.SubtotalCents != 1000 || totals.TotalCents != 1000 {
		t.Fatalf("expected subtotal/total 1000 after first add, got %d/%d", totals.SubtotalCents, totals.TotalCents)
	}

	if err := c.AddItem(testProduct("P1", 500), 3, 600); err != nil {
		t.Fatalf("second add failed: %v", err)
	}

	items := c.Items()
	if len(items) != 1 {
		t.Fatalf("expected one merged line, got %d", len(items))
	}
	if items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5 (additive), got %d", items[0].Quantity)
	}
	if items[0].UnitPriceCents != 600 {
		t.Fatalf("expected unit price 600 (last write wins), got %d", items[0].UnitPriceCents)
	}
	if lineTotal := items[0].UnitPriceCents * int64(items[0].Quantity); lineTotal != 3000 {
		t.Fatalf("expected line total 3000, got %d", lineTotal)
	}
}

func TestAddItemValidation(t *testing.T) {
	c := NewComposer()

	if err := c.AddItem(domain.Product{}, 1, 100); !errors.Is(err, ErrUnknownProduct) {
		t.Fatalf("expected ErrUnknownProduct, got %v", err)
	}
	if err := c.AddItem(testProduct("P1", 100), 0, 100); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if err := c.AddItem(testProduct("P1", 100), 1, -1); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
	if len(c.Items()) != 0 {
		t.Fatalf("failed adds must not mutate the draft, got %d items", len(c.Items()))
	}
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	c := NewComposer()
	if err := c.AddItem(testProduct("P1", 500), 2, 500); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	c.UpdateQuantity("P1", 0)
	if len(c.Items()) != 0 {
		t.Fatalf("expected line removed on zero quantity")
	}

	// Removing again is a no-op.
	c.RemoveItem("P1")
	if len(c.Items()) != 0 {
		t.Fatalf("remove of absent line must be a no-op")
	}
}

func TestUpdateUnitPriceCoercesNegativeToZero(t *testing.T) {
	c := NewComposer()
	if err := c.AddItem(testProduct("P1", 500), 2, 500); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	c.UpdateUnitPrice("P1", -250)
	items := c.Items()
	if items[0].UnitPriceCents != 0 {
		t.Fatalf("expected negative price coerced to 0, got %d", items[0].UnitPriceCents)
	}
	if totals := c.Totals(); totals.TotalCents != 0 {
		t.Fatalf("expected total 0 after coercion, got %d", totals.TotalCents)
	}
}

func TestTotalsIdempotentAndDiscountNeverReducesTotal(t *testing.T) {
	c := NewComposer()
	if err := c.AddItem(testProduct("P1", 1200), 3, 1200); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := c.AddItem(testProduct("P2", 450), 2, 450); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	first := c.Totals()
	second := c.Totals()
	if first != second {
		t.Fatalf("Totals must be idempotent: %+v vs %+v", first, second)
	}
	if first.SubtotalCents != 4500 {
		t.Fatalf("expected subtotal 4500, got %d", first.SubtotalCents)
	}
	if first.DiscountCents != 0 {
		t.Fatalf("discount is fixed at zero, got %d", first.DiscountCents)
	}
	if first.TotalCents != first.SubtotalCents {
		t.Fatalf("discount must never reduce total: subtotal=%d total=%d", first.SubtotalCents, first.TotalCents)
	}
}

func TestFullyPaidPinTracksTotalAcrossMutations(t *testing.T) {
	c := NewComposer()
	if err := c.AddItem(testProduct("P1", 500), 2, 500); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	c.SetFullyPaid(true)
	if c.PaidMode() != PaidModePinned {
		t.Fatalf("expected pinned mode")
	}
	if totals := c.Totals(); totals.AmountPaidCents != totals.TotalCents {
		t.Fatalf("pinned amountPaid must equal total: paid=%d total=%d", totals.AmountPaidCents, totals.TotalCents)
	}

	// Any total-changing mutation keeps the pin.
	if err := c.AddItem(testProduct("P2", 700), 1, 700); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	c.UpdateQuantity("P1", 4)
	totals := c.Totals()
	if totals.TotalCents != 2700 {
		t.Fatalf("expected total 2700, got %d", totals.TotalCents)
	}
	if totals.AmountPaidCents != 2700 || totals.RemainingCents != 0 {
		t.Fatalf("pin must follow total: paid=%d remaining=%d", totals.AmountPaidCents, totals.RemainingCents)
	}

	// Releasing the pin restores the editable value.
	c.SetFullyPaid(false)
	c.SetAmountPaid(1000)
	totals = c.Totals()
	if totals.AmountPaidCents != 1000 || totals.RemainingCents != 1700 {
		t.Fatalf("expected free paid=1000 remaining=1700, got paid=%d remaining=%d", totals.AmountPaidCents, totals.RemainingCents)
	}
}

func TestSetAmountPaidClamps(t *testing.T) {
	c := NewComposer()
	if err := c.AddItem(testProduct("P1", 500), 2, 500); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	c.SetAmountPaid(-50)
	if totals := c.Totals(); totals.AmountPaidCents != 0 {
		t.Fatalf("negative paid must clamp to 0, got %d", totals.AmountPaidCents)
	}

	c.SetAmountPaid(99999)
	if totals := c.Totals(); totals.AmountPaidCents != totals.TotalCents {
		t.Fatalf("paid must clamp to total, got %d vs %d", totals.AmountPaidCents, totals.TotalCents)
	}
}

func TestBuildSubmissionRequiresItemsAndSeller(t *testing.T) {
	c := NewComposer()

	if _, err := c.BuildSubmission(); !errors.Is(err, ErrEmptyBill) {
		t.Fatalf("expected ErrEmptyBill, got %v", err)
	}

	if err := c.AddItem(testProduct("P1", 500), 2, 500); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := c.BuildSubmission(); !errors.Is(err, ErrMissingSeller) {
		t.Fatalf("expected ErrMissingSeller, got %v", err)
	}

	c.SetSeller("seller-1")
	req, err := c.BuildSubmission()
	if err != nil {
		t.Fatalf("submission failed: %v", err)
	}
	if len(req.Items) != 1 {
		t.Fatalf("expected one line, got %d", len(req.Items))
	}
	if req.Items[0].TotalCents != 1000 || req.TotalCents != req.Items[0].TotalCents {
		t.Fatalf("expected bill total to equal the single line total, got line=%d total=%d", req.Items[0].TotalCents, req.TotalCents)
	}
	if req.DiscountCents != 0 {
		t.Fatalf("submission must carry zero discount, got %d", req.DiscountCents)
	}
	if req.PaymentMethod != domain.DefaultPaymentMethod {
		t.Fatalf("expected default payment method, got %q", req.PaymentMethod)
	}
	if req.AmountPaidCents+req.RemainingCents != req.TotalCents {
		t.Fatalf("submission amounts must reconcile: paid=%d remaining=%d total=%d", req.AmountPaidCents, req.RemainingCents, req.TotalCents)
	}

	// A failed submission earlier must not have mutated the draft.
	if len(c.Items()) != 1 {
		t.Fatalf("draft must be untouched after submission attempts")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	c := NewComposer()
	if err := c.AddItem(testProduct("P1", 500), 2, 500); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	c.SetCustomer("cust-1")
	c.SetSeller("seller-1")
	c.SetPreviousRemaining(3200)
	c.SetFullyPaid(true)

	restored := Load(c.Snapshot())
	if restored.Totals() != c.Totals() {
		t.Fatalf("round-tripped totals differ: %+v vs %+v", restored.Totals(), c.Totals())
	}
	if restored.PaidMode() != PaidModePinned {
		t.Fatalf("pin state lost in round trip")
	}

	req, err := restored.BuildSubmission()
	if err != nil {
		t.Fatalf("submission after round trip failed: %v", err)
	}
	if req.CustomerID != "cust-1" || req.SellerID != "seller-1" || req.PreviousRemainingCents != 3200 {
		t.Fatalf("references lost in round trip: %+v", req)
	}
}

func TestClearResetsDraft(t *testing.T) {
	c := NewComposer()
	if err := c.AddItem(testProduct("P1", 500), 2, 500); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	c.SetSeller("seller-1")
	c.SetFullyPaid(true)

	c.Clear()
	if len(c.Items()) != 0 {
		t.Fatalf("expected empty draft after clear")
	}
	if c.PaidMode() != PaidModeFree {
		t.Fatalf("expected free paid mode after clear")
	}
	if _, err := c.BuildSubmission(); !errors.Is(err, ErrEmptyBill) {
		t.Fatalf("cleared draft must report empty bill, got %v", err)
	}
}
