package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"tagihin/backend/internal/billing"
	"tagihin/backend/internal/cache"
	"tagihin/backend/internal/domain"
	"tagihin/backend/internal/store"
	"tagihin/backend/internal/store/memory"
)

func newTestService() *Service {
	repo := memory.NewSeeded()
	return New(repo, cache.NoopStatsCache{}, 5*time.Second)
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: "admin"})
}

func cashierCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "cashier", Role: "cashier"})
}

func buildDraft(t *testing.T, svc *Service, ctx context.Context) domain.DraftResponse {
	t.Helper()

	resp, err := svc.OpenDraft(ctx, domain.DraftOpenRequest{SellerID: "seller-seed-01"})
	if err != nil {
		t.Fatalf("open draft failed: %v", err)
	}
	resp, err = svc.AddDraftItem(ctx, resp.Draft.ID, domain.DraftAddItemRequest{
		ProductSKU: "SKU-GULA-01",
		Quantity:   2,
	})
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	return resp
}

func TestDraftLifecycleMergesAndTotals(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()

	resp := buildDraft(t, svc, ctx)
	if resp.Totals.SubtotalCents != 34800 {
		t.Fatalf("expected subtotal 34800 (2 x 17400), got %d", resp.Totals.SubtotalCents)
	}

	// Re-adding the same product merges the line: additive quantity,
	// last-write unit price.
	price := int64(600)
	resp, err := svc.AddDraftItem(ctx, resp.Draft.ID, domain.DraftAddItemRequest{
		ProductSKU:     "SKU-GULA-01",
		Quantity:       3,
		UnitPriceCents: &price,
	})
	if err != nil {
		t.Fatalf("merge add failed: %v", err)
	}
	if len(resp.Draft.Items) != 1 {
		t.Fatalf("expected one merged line, got %d", len(resp.Draft.Items))
	}
	if resp.Draft.Items[0].Quantity != 5 || resp.Draft.Items[0].UnitPriceCents != 600 {
		t.Fatalf("expected qty 5 at price 600, got qty %d price %d", resp.Draft.Items[0].Quantity, resp.Draft.Items[0].UnitPriceCents)
	}
	if resp.Totals.TotalCents != 3000 {
		t.Fatalf("expected total 3000, got %d", resp.Totals.TotalCents)
	}
	if resp.Totals.DiscountCents != 0 {
		t.Fatalf("expected zero discount, got %d", resp.Totals.DiscountCents)
	}
}

func TestDraftFullyPaidPin(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()

	resp := buildDraft(t, svc, ctx)

	pinned := true
	resp, err := svc.SetDraftPayment(ctx, resp.Draft.ID, domain.DraftPaymentRequest{FullyPaid: &pinned})
	if err != nil {
		t.Fatalf("set payment failed: %v", err)
	}
	if resp.Totals.AmountPaidCents != resp.Totals.TotalCents || resp.Totals.RemainingCents != 0 {
		t.Fatalf("pinned draft must be fully paid: %+v", resp.Totals)
	}

	// A mutation that changes the total keeps the pin tracking it.
	resp, err = svc.AddDraftItem(ctx, resp.Draft.ID, domain.DraftAddItemRequest{
		ProductSKU: "SKU-TEH-01",
		Quantity:   1,
	})
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if resp.Totals.AmountPaidCents != resp.Totals.TotalCents {
		t.Fatalf("pin must follow total after mutation: %+v", resp.Totals)
	}
}

func TestDraftVisibilityPerCashier(t *testing.T) {
	svc := newTestService()

	resp := buildDraft(t, svc, cashierCtx())

	otherCtx := WithActor(context.Background(), domain.Actor{Username: "kasir-b", Role: "cashier"})
	if _, err := svc.GetDraft(otherCtx, resp.Draft.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected foreign cashier to be denied, got %v", err)
	}
	if _, err := svc.GetDraft(adminCtx(), resp.Draft.ID); err != nil {
		t.Fatalf("admin must see every draft: %v", err)
	}
}

func TestSubmitDraftCreatesBillAndDecrementsStock(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()

	resp := buildDraft(t, svc, ctx)

	paid := int64(10000)
	if _, err := svc.SetDraftPayment(ctx, resp.Draft.ID, domain.DraftPaymentRequest{AmountPaidCents: &paid}); err != nil {
		t.Fatalf("set payment failed: %v", err)
	}

	bill, err := svc.SubmitDraft(ctx, resp.Draft.ID)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if bill.Bill.BillNumber == "" {
		t.Fatalf("expected bill number to be assigned")
	}
	if bill.Bill.Status != domain.BillStatusPending {
		t.Fatalf("partially paid bill must be pending, got %s", bill.Bill.Status)
	}
	if bill.Bill.AmountPaidCents+bill.Bill.RemainingCents != bill.Bill.TotalCents {
		t.Fatalf("bill amounts must reconcile: %+v", bill.Bill)
	}

	product, err := svc.repo.GetProductBySKU(ctx, "SKU-GULA-01")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.Stock != 78 {
		t.Fatalf("expected stock 78 after submission, got %d", product.Stock)
	}

	// The draft is consumed by submission.
	if _, err := svc.GetDraft(ctx, resp.Draft.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected draft deleted after submit, got %v", err)
	}
}

func TestSubmitDraftRequiresSellerAndItems(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()

	resp, err := svc.OpenDraft(ctx, domain.DraftOpenRequest{})
	if err != nil {
		t.Fatalf("open draft failed: %v", err)
	}
	if _, err := svc.SubmitDraft(ctx, resp.Draft.ID); !errors.Is(err, billing.ErrEmptyBill) {
		t.Fatalf("expected ErrEmptyBill, got %v", err)
	}

	resp, err = svc.AddDraftItem(ctx, resp.Draft.ID, domain.DraftAddItemRequest{ProductSKU: "SKU-TEH-01", Quantity: 1})
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if _, err := svc.SubmitDraft(ctx, resp.Draft.ID); !errors.Is(err, billing.ErrMissingSeller) {
		t.Fatalf("expected ErrMissingSeller, got %v", err)
	}
}

func TestSubmitDraftRejectsInsufficientStock(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()

	resp, err := svc.OpenDraft(ctx, domain.DraftOpenRequest{SellerID: "seller-seed-01"})
	if err != nil {
		t.Fatalf("open draft failed: %v", err)
	}
	// The composer snapshots stock for display only, so the oversized
	// quantity is accepted at draft time and must be rejected at submit.
	resp, err = svc.AddDraftItem(ctx, resp.Draft.ID, domain.DraftAddItemRequest{ProductSKU: "SKU-CAT-01", Quantity: 50})
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if _, err := svc.SubmitDraft(ctx, resp.Draft.ID); !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
}

func TestRecordPaymentLifecycle(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()

	resp := buildDraft(t, svc, ctx)
	paid := int64(14800)
	if _, err := svc.SetDraftPayment(ctx, resp.Draft.ID, domain.DraftPaymentRequest{AmountPaidCents: &paid}); err != nil {
		t.Fatalf("set payment failed: %v", err)
	}
	bill, err := svc.SubmitDraft(ctx, resp.Draft.ID)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if bill.Bill.RemainingCents != 20000 {
		t.Fatalf("expected remaining 20000, got %d", bill.Bill.RemainingCents)
	}

	if _, err := svc.RecordPayment(ctx, bill.Bill.ID, domain.PaymentRequest{AmountCents: 0}); !errors.Is(err, billing.ErrInvalidPaymentAmount) {
		t.Fatalf("expected ErrInvalidPaymentAmount, got %v", err)
	}
	if _, err := svc.RecordPayment(ctx, bill.Bill.ID, domain.PaymentRequest{AmountCents: 20001}); !errors.Is(err, billing.ErrExceedsRemaining) {
		t.Fatalf("expected ErrExceedsRemaining, got %v", err)
	}

	preview, err := svc.PreviewPayment(ctx, bill.Bill.ID, 20000)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if preview.RemainingBeforeCents != 20000 || preview.RemainingAfterCents != 0 {
		t.Fatalf("unexpected preview: %+v", preview)
	}

	updated, err := svc.RecordPayment(ctx, bill.Bill.ID, domain.PaymentRequest{AmountCents: 20000, Note: "pelunasan"})
	if err != nil {
		t.Fatalf("record payment failed: %v", err)
	}
	if updated.Bill.Status != domain.BillStatusCompleted {
		t.Fatalf("expected completed status, got %s", updated.Bill.Status)
	}
	if updated.Bill.RemainingCents != 0 {
		t.Fatalf("expected remaining 0, got %d", updated.Bill.RemainingCents)
	}

	payments, err := svc.ListBillPayments(ctx, bill.Bill.ID)
	if err != nil {
		t.Fatalf("list payments failed: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("expected initial + settlement payments, got %d", len(payments))
	}

	// Settled bill accepts no more money.
	if _, err := svc.RecordPayment(ctx, bill.Bill.ID, domain.PaymentRequest{AmountCents: 1}); !errors.Is(err, billing.ErrExceedsRemaining) {
		t.Fatalf("expected ErrExceedsRemaining for settled bill, got %v", err)
	}
}

func TestCancelBillRestocks(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()

	resp := buildDraft(t, svc, ctx)
	bill, err := svc.SubmitDraft(ctx, resp.Draft.ID)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	cancelled, err := svc.CancelBill(adminCtx(), bill.Bill.ID, "input error")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != domain.BillStatusCancelled {
		t.Fatalf("expected cancelled status, got %s", cancelled.Status)
	}

	product, err := svc.repo.GetProductBySKU(ctx, "SKU-GULA-01")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.Stock != 80 {
		t.Fatalf("expected stock restored to 80, got %d", product.Stock)
	}

	if _, err := svc.CancelBill(adminCtx(), bill.Bill.ID, "again"); err == nil {
		t.Fatalf("expected double cancel to fail")
	}
	if _, err := svc.RecordPayment(ctx, bill.Bill.ID, domain.PaymentRequest{AmountCents: 100}); err == nil {
		t.Fatalf("expected payment against cancelled bill to fail")
	}
}

func TestCreateProductRequiresAdmin(t *testing.T) {
	svc := newTestService()

	_, err := svc.CreateProduct(cashierCtx(), domain.ProductCreateRequest{
		SKU:        "SKU-NEW-01",
		Name:       "Produk Baru",
		Category:   "grocery",
		PriceCents: 5000,
	})
	if err == nil {
		t.Fatalf("expected cashier product create to fail")
	}

	created, err := svc.CreateProduct(adminCtx(), domain.ProductCreateRequest{
		SKU:          "sku-new-01",
		Name:         "Produk Baru",
		Category:     "grocery",
		PriceCents:   5000,
		InitialStock: 12,
	})
	if err != nil {
		t.Fatalf("admin product create failed: %v", err)
	}
	if created.SKU != "SKU-NEW-01" {
		t.Fatalf("expected SKU uppercased, got %s", created.SKU)
	}
	if created.Stock != 12 {
		t.Fatalf("expected initial stock 12, got %d", created.Stock)
	}
}

func TestCustomerOutstandingAggregatesOpenBills(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()

	resp, err := svc.OpenDraft(ctx, domain.DraftOpenRequest{
		CustomerID: "cust-seed-01",
		SellerID:   "seller-seed-01",
	})
	if err != nil {
		t.Fatalf("open draft failed: %v", err)
	}
	resp, err = svc.AddDraftItem(ctx, resp.Draft.ID, domain.DraftAddItemRequest{ProductSKU: "SKU-TEH-01", Quantity: 2})
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	bill, err := svc.SubmitDraft(ctx, resp.Draft.ID)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	outstanding, err := svc.CustomerOutstanding(ctx, "cust-seed-01")
	if err != nil {
		t.Fatalf("outstanding failed: %v", err)
	}
	if outstanding.OutstandingCents != bill.Bill.RemainingCents {
		t.Fatalf("expected outstanding %d, got %d", bill.Bill.RemainingCents, outstanding.OutstandingCents)
	}
	if len(outstanding.OpenBills) != 1 {
		t.Fatalf("expected one open bill, got %d", len(outstanding.OpenBills))
	}
}

func TestBillingStatsCountsByStatus(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()

	resp := buildDraft(t, svc, ctx)
	pinned := true
	if _, err := svc.SetDraftPayment(ctx, resp.Draft.ID, domain.DraftPaymentRequest{FullyPaid: &pinned}); err != nil {
		t.Fatalf("set payment failed: %v", err)
	}
	if _, err := svc.SubmitDraft(ctx, resp.Draft.ID); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	today := time.Now().UTC().Format("2006-01-02")
	stats, err := svc.BillingStats(ctx, today, today)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Bills != 1 {
		t.Fatalf("expected one bill, got %d", stats.Bills)
	}
	if stats.ByStatus[domain.BillStatusCompleted] != 1 {
		t.Fatalf("expected one completed bill, got %+v", stats.ByStatus)
	}
	if stats.CollectedCents != stats.GrossCents {
		t.Fatalf("fully paid bill: collected %d must equal gross %d", stats.CollectedCents, stats.GrossCents)
	}
}

func TestBuildReceiptContainsBillNumber(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()

	resp := buildDraft(t, svc, ctx)
	bill, err := svc.SubmitDraft(ctx, resp.Draft.ID)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	receipt, err := svc.BuildReceipt(ctx, bill.Bill.ID)
	if err != nil {
		t.Fatalf("receipt failed: %v", err)
	}
	if receipt.BillNumber != bill.Bill.BillNumber {
		t.Fatalf("expected bill number %s, got %s", bill.Bill.BillNumber, receipt.BillNumber)
	}
	if receipt.EscposBase64 == "" || receipt.PreviewText == "" {
		t.Fatalf("expected rendered receipt payloads")
	}
}
