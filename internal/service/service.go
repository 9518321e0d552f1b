package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"tagihin/backend/internal/billing"
	"tagihin/backend/internal/cache"
	"tagihin/backend/internal/domain"
	"tagihin/backend/internal/store"
	"tagihin/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo       store.Repository
	statsCache cache.StatsCache
	statsTTL   time.Duration
}

func New(repo store.Repository, statsCache cache.StatsCache, statsTTL time.Duration) *Service {
	if statsCache == nil {
		statsCache = cache.NoopStatsCache{}
	}
	if statsTTL <= 0 {
		statsTTL = 60 * time.Second
	}

	return &Service{
		repo:       repo,
		statsCache: statsCache,
		statsTTL:   statsTTL,
	}
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	req.Name = strings.TrimSpace(req.Name)
	req.Model = strings.TrimSpace(req.Model)
	req.Category = strings.TrimSpace(req.Category)

	if req.SKU == "" || req.Name == "" || req.Category == "" {
		return domain.Product{}, store.ErrInvalidBill
	}
	if req.PriceCents < 1 || req.InitialStock < 0 {
		return domain.Product{}, store.ErrInvalidBill
	}

	product := domain.Product{
		SKU:        req.SKU,
		Name:       req.Name,
		Model:      req.Model,
		Category:   req.Category,
		PriceCents: req.PriceCents,
		Stock:      req.InitialStock,
		Active:     true,
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_create", "product", created.SKU, fmt.Sprintf("name=%s,price=%d,stock=%d", created.Name, created.PriceCents, created.Stock))
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, sku string, req domain.ProductUpdateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	sku = strings.ToUpper(strings.TrimSpace(sku))
	if sku == "" {
		return domain.Product{}, store.ErrInvalidBill
	}

	existing, err := s.repo.GetProductBySKU(ctx, sku)
	if err != nil {
		return domain.Product{}, err
	}

	product := *existing
	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Model != nil {
		product.Model = strings.TrimSpace(*req.Model)
	}
	if req.Category != nil {
		product.Category = strings.TrimSpace(*req.Category)
	}
	if req.PriceCents != nil {
		product.PriceCents = *req.PriceCents
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.Active != nil {
		product.Active = *req.Active
	}

	if product.Name == "" || product.Category == "" || product.PriceCents < 1 || product.Stock < 0 {
		return domain.Product{}, store.ErrInvalidBill
	}

	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_update", "product", updated.SKU, fmt.Sprintf("price=%d,stock=%d,active=%t", updated.PriceCents, updated.Stock, updated.Active))
	return *updated, nil
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Customer{}, store.ErrInvalidBill
	}

	customer := domain.Customer{
		ID:        xid.New("cust"),
		Name:      req.Name,
		Phone:     strings.TrimSpace(req.Phone),
		Address:   strings.TrimSpace(req.Address),
		CreatedAt: time.Now().UTC(),
	}

	created, err := s.repo.CreateCustomer(ctx, customer)
	if err != nil {
		return domain.Customer{}, err
	}

	s.logAudit(ctx, "customer_create", "customer", created.ID, "name="+created.Name)
	return *created, nil
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) CustomerOutstanding(ctx context.Context, customerID string) (domain.CustomerOutstanding, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return domain.CustomerOutstanding{}, store.ErrInvalidBill
	}
	return s.repo.GetCustomerOutstanding(ctx, customerID)
}

func (s *Service) CreateSeller(ctx context.Context, req domain.SellerCreateRequest) (domain.Seller, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Seller{}, fmt.Errorf("admin role required")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Seller{}, store.ErrInvalidBill
	}

	seller := domain.Seller{
		ID:        xid.New("seller"),
		Name:      req.Name,
		Phone:     strings.TrimSpace(req.Phone),
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}

	created, err := s.repo.CreateSeller(ctx, seller)
	if err != nil {
		return domain.Seller{}, err
	}

	s.logAudit(ctx, "seller_create", "seller", created.ID, "name="+created.Name)
	return *created, nil
}

func (s *Service) ListSellers(ctx context.Context) ([]domain.Seller, error) {
	return s.repo.ListSellers(ctx)
}

func (s *Service) OpenDraft(ctx context.Context, req domain.DraftOpenRequest) (domain.DraftResponse, error) {
	composer := billing.NewComposer()
	if strings.TrimSpace(req.CustomerID) != "" {
		if _, err := s.repo.GetCustomerByID(ctx, req.CustomerID); err != nil {
			return domain.DraftResponse{}, err
		}
		composer.SetCustomer(req.CustomerID)
	}
	if strings.TrimSpace(req.SellerID) != "" {
		if _, err := s.repo.GetSellerByID(ctx, req.SellerID); err != nil {
			return domain.DraftResponse{}, err
		}
		composer.SetSeller(req.SellerID)
	}

	actor, _ := ActorFromContext(ctx)
	draft := composer.TouchedSnapshot(time.Now().UTC())
	draft.ID = xid.New("draft")
	draft.CashierUsername = actor.Username
	draft.Note = strings.TrimSpace(req.Note)

	saved, err := s.repo.SaveDraft(ctx, draft)
	if err != nil {
		return domain.DraftResponse{}, err
	}

	s.logAudit(ctx, "draft_open", "draft", saved.ID, "")
	return draftResponse(*saved), nil
}

func (s *Service) GetDraft(ctx context.Context, draftID string) (domain.DraftResponse, error) {
	draft, err := s.loadDraft(ctx, draftID)
	if err != nil {
		return domain.DraftResponse{}, err
	}
	return draftResponse(*draft), nil
}

func (s *Service) ListDrafts(ctx context.Context) (domain.DraftListResponse, error) {
	actor, _ := ActorFromContext(ctx)

	// Admins see every parked draft, cashiers only their own.
	username := actor.Username
	if actor.Role == "admin" {
		username = ""
	}

	drafts, err := s.repo.ListDrafts(ctx, username, 50)
	if err != nil {
		return domain.DraftListResponse{}, err
	}
	return domain.DraftListResponse{Drafts: drafts}, nil
}

func (s *Service) AddDraftItem(ctx context.Context, draftID string, req domain.DraftAddItemRequest) (domain.DraftResponse, error) {
	draft, err := s.loadDraft(ctx, draftID)
	if err != nil {
		return domain.DraftResponse{}, err
	}

	sku := strings.ToUpper(strings.TrimSpace(req.ProductSKU))
	if sku == "" {
		return domain.DraftResponse{}, store.ErrInvalidBill
	}
	product, err := s.repo.GetProductBySKU(ctx, sku)
	if err != nil {
		return domain.DraftResponse{}, err
	}
	if !product.Active {
		return domain.DraftResponse{}, store.ErrNotFound
	}

	unitPrice := product.PriceCents
	if req.UnitPriceCents != nil {
		unitPrice = *req.UnitPriceCents
	}

	composer := billing.Load(*draft)
	if err := composer.AddItem(*product, req.Quantity, unitPrice); err != nil {
		return domain.DraftResponse{}, err
	}

	return s.saveComposer(ctx, composer, draft)
}

func (s *Service) UpdateDraftItem(ctx context.Context, draftID string, sku string, req domain.DraftUpdateItemRequest) (domain.DraftResponse, error) {
	draft, err := s.loadDraft(ctx, draftID)
	if err != nil {
		return domain.DraftResponse{}, err
	}

	sku = strings.ToUpper(strings.TrimSpace(sku))
	composer := billing.Load(*draft)
	if req.Quantity != nil {
		composer.UpdateQuantity(sku, *req.Quantity)
	}
	if req.UnitPriceCents != nil {
		composer.UpdateUnitPrice(sku, *req.UnitPriceCents)
	}

	return s.saveComposer(ctx, composer, draft)
}

func (s *Service) RemoveDraftItem(ctx context.Context, draftID string, sku string) (domain.DraftResponse, error) {
	draft, err := s.loadDraft(ctx, draftID)
	if err != nil {
		return domain.DraftResponse{}, err
	}

	composer := billing.Load(*draft)
	composer.RemoveItem(strings.ToUpper(strings.TrimSpace(sku)))

	return s.saveComposer(ctx, composer, draft)
}

func (s *Service) SetDraftPayment(ctx context.Context, draftID string, req domain.DraftPaymentRequest) (domain.DraftResponse, error) {
	draft, err := s.loadDraft(ctx, draftID)
	if err != nil {
		return domain.DraftResponse{}, err
	}

	composer := billing.Load(*draft)
	if req.CustomerID != nil {
		customerID := strings.TrimSpace(*req.CustomerID)
		if customerID != "" {
			if _, err := s.repo.GetCustomerByID(ctx, customerID); err != nil {
				return domain.DraftResponse{}, err
			}
		}
		composer.SetCustomer(customerID)
	}
	if req.SellerID != nil {
		sellerID := strings.TrimSpace(*req.SellerID)
		if sellerID != "" {
			if _, err := s.repo.GetSellerByID(ctx, sellerID); err != nil {
				return domain.DraftResponse{}, err
			}
		}
		composer.SetSeller(sellerID)
	}
	if req.PreviousRemainingCents != nil {
		composer.SetPreviousRemaining(*req.PreviousRemainingCents)
	}
	// Order matters: an explicit amount is applied before the pin so that
	// releasing the pin later restores the edited value.
	if req.AmountPaidCents != nil {
		composer.SetAmountPaid(*req.AmountPaidCents)
	}
	if req.FullyPaid != nil {
		composer.SetFullyPaid(*req.FullyPaid)
	}

	return s.saveComposer(ctx, composer, draft)
}

func (s *Service) DiscardDraft(ctx context.Context, draftID string) error {
	draft, err := s.loadDraft(ctx, draftID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteDraft(ctx, draft.ID); err != nil {
		return err
	}
	s.logAudit(ctx, "draft_discard", "draft", draft.ID, fmt.Sprintf("items=%d", len(draft.Items)))
	return nil
}

// SubmitDraft freezes the draft into a bill. The store performs the stock
// check and decrement inside one transaction, so a stale stock snapshot on
// the draft is caught here, not at add-item time.
func (s *Service) SubmitDraft(ctx context.Context, draftID string) (domain.BillResponse, error) {
	draft, err := s.loadDraft(ctx, draftID)
	if err != nil {
		return domain.BillResponse{}, err
	}

	composer := billing.Load(*draft)
	req, err := composer.BuildSubmission()
	if err != nil {
		return domain.BillResponse{}, err
	}

	resp, err := s.CreateBill(ctx, req)
	if err != nil {
		return domain.BillResponse{}, err
	}

	if err := s.repo.DeleteDraft(ctx, draft.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("[service] WARN: failed to delete submitted draft %s: %v", draft.ID, err)
	}

	s.logAudit(ctx, "draft_submit", "bill", resp.Bill.ID, "draft="+draft.ID)
	return resp, nil
}

func (s *Service) CreateBill(ctx context.Context, req domain.BillCreateRequest) (domain.BillResponse, error) {
	if len(req.Items) == 0 {
		return domain.BillResponse{}, billing.ErrEmptyBill
	}
	if strings.TrimSpace(req.SellerID) == "" {
		return domain.BillResponse{}, billing.ErrMissingSeller
	}

	// Recompute the amounts instead of trusting the submitted snapshot.
	subtotal := int64(0)
	for _, line := range req.Items {
		if line.Quantity < 1 || line.UnitPriceCents < 0 {
			return domain.BillResponse{}, store.ErrInvalidBill
		}
		if line.TotalCents != line.UnitPriceCents*int64(line.Quantity) {
			return domain.BillResponse{}, store.ErrInvalidBill
		}
		subtotal += line.TotalCents
	}
	total := subtotal
	if req.SubtotalCents != subtotal || req.DiscountCents != 0 || req.TotalCents != total {
		return domain.BillResponse{}, store.ErrInvalidBill
	}
	if req.AmountPaidCents < 0 || req.AmountPaidCents > total {
		return domain.BillResponse{}, store.ErrInvalidBill
	}
	if req.AmountPaidCents+req.RemainingCents != total {
		return domain.BillResponse{}, store.ErrInvalidBill
	}

	bill := domain.Bill{
		ID:                     xid.New("bill"),
		Items:                  req.Items,
		CustomerID:             strings.TrimSpace(req.CustomerID),
		SellerID:               strings.TrimSpace(req.SellerID),
		SubtotalCents:          subtotal,
		DiscountCents:          0,
		DiscountType:           domain.DiscountTypeAmount,
		TotalCents:             total,
		AmountPaidCents:        req.AmountPaidCents,
		RemainingCents:         req.RemainingCents,
		PreviousRemainingCents: req.PreviousRemainingCents,
		PaymentMethod:          defaultString(req.PaymentMethod, domain.DefaultPaymentMethod),
		Status:                 billing.StatusForRemaining(req.RemainingCents),
		CreatedAt:              time.Now().UTC(),
	}

	created, err := s.repo.CreateBill(ctx, bill)
	if err != nil {
		return domain.BillResponse{}, err
	}
	if err := billing.CheckInvariant(*created); err != nil {
		return domain.BillResponse{}, err
	}

	s.logAudit(ctx, "bill_create", "bill", created.ID, fmt.Sprintf("number=%s,total=%d,paid=%d,remaining=%d", created.BillNumber, created.TotalCents, created.AmountPaidCents, created.RemainingCents))
	return domain.BillResponse{Bill: *created}, nil
}

func (s *Service) GetBill(ctx context.Context, billID string) (domain.BillResponse, error) {
	billID = strings.TrimSpace(billID)
	if billID == "" {
		return domain.BillResponse{}, store.ErrInvalidBill
	}
	bill, err := s.repo.GetBillByID(ctx, billID)
	if err != nil {
		return domain.BillResponse{}, err
	}
	return domain.BillResponse{Bill: *bill}, nil
}

func (s *Service) ListBills(ctx context.Context, filter domain.BillFilter) (domain.BillListResponse, error) {
	bills, err := s.repo.ListBills(ctx, filter)
	if err != nil {
		return domain.BillListResponse{}, err
	}
	return domain.BillListResponse{Bills: bills}, nil
}

func (s *Service) ListBillPayments(ctx context.Context, billID string) ([]domain.BillPayment, error) {
	billID = strings.TrimSpace(billID)
	if billID == "" {
		return nil, store.ErrInvalidBill
	}
	return s.repo.ListBillPayments(ctx, billID)
}

// PreviewPayment reports the estimated before/after balances without
// touching the ledger. The authoritative result comes from RecordPayment.
func (s *Service) PreviewPayment(ctx context.Context, billID string, amountCents int64) (domain.PaymentPreview, error) {
	bill, err := s.repo.GetBillByID(ctx, strings.TrimSpace(billID))
	if err != nil {
		return domain.PaymentPreview{}, err
	}
	if err := billing.ValidatePayment(*bill, amountCents); err != nil {
		return domain.PaymentPreview{}, err
	}
	return billing.PreviewPayment(*bill, amountCents), nil
}

func (s *Service) RecordPayment(ctx context.Context, billID string, req domain.PaymentRequest) (domain.BillResponse, error) {
	billID = strings.TrimSpace(billID)
	if billID == "" {
		return domain.BillResponse{}, store.ErrInvalidBill
	}

	bill, err := s.repo.GetBillByID(ctx, billID)
	if err != nil {
		return domain.BillResponse{}, err
	}
	if bill.Status == domain.BillStatusCancelled {
		return domain.BillResponse{}, store.ErrInvalidBill
	}
	if err := billing.ValidatePayment(*bill, req.AmountCents); err != nil {
		return domain.BillResponse{}, err
	}

	actor, _ := ActorFromContext(ctx)
	payment := domain.BillPayment{
		ID:          xid.New("pay"),
		BillID:      billID,
		AmountCents: req.AmountCents,
		Note:        strings.TrimSpace(req.Note),
		RecordedBy:  actor.Username,
		CreatedAt:   time.Now().UTC(),
	}

	updated, err := s.repo.ApplyBillPayment(ctx, billID, payment)
	if err != nil {
		return domain.BillResponse{}, err
	}
	if err := billing.CheckInvariant(*updated); err != nil {
		return domain.BillResponse{}, err
	}

	s.logAudit(ctx, "bill_payment", "bill", billID, fmt.Sprintf("amount=%d,remaining=%d", req.AmountCents, updated.RemainingCents))
	return domain.BillResponse{Bill: *updated}, nil
}

// CancelBill assumes the caller has already verified the manager PIN.
func (s *Service) CancelBill(ctx context.Context, billID string, reason string) (domain.CancelBillResponse, error) {
	billID = strings.TrimSpace(billID)
	if billID == "" {
		return domain.CancelBillResponse{}, store.ErrInvalidBill
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unspecified"
	}

	cancelledAt := time.Now().UTC()
	bill, err := s.repo.CancelBill(ctx, billID, reason, cancelledAt)
	if err != nil {
		return domain.CancelBillResponse{}, err
	}

	s.logAudit(ctx, "bill_cancel", "bill", bill.ID, reason)

	return domain.CancelBillResponse{
		BillID:      bill.ID,
		Status:      bill.Status,
		CancelledAt: cancelledAt.Format(time.RFC3339),
	}, nil
}

func (s *Service) BillingStats(ctx context.Context, fromDate string, toDate string) (domain.BillingStats, error) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if strings.TrimSpace(fromDate) != "" {
		parsed, err := time.Parse("2006-01-02", fromDate)
		if err != nil {
			return domain.BillingStats{}, store.ErrInvalidBill
		}
		from = parsed.UTC()
	}
	to := from.Add(24 * time.Hour)
	if strings.TrimSpace(toDate) != "" {
		parsed, err := time.Parse("2006-01-02", toDate)
		if err != nil {
			return domain.BillingStats{}, store.ErrInvalidBill
		}
		to = parsed.UTC().Add(24 * time.Hour)
	}
	if !to.After(from) {
		return domain.BillingStats{}, store.ErrInvalidBill
	}

	cacheKey := fmt.Sprintf("stats:billing:%s:%s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	if cached, found, err := s.statsCache.Get(ctx, cacheKey); err == nil && found {
		return *cached, nil
	} else if err != nil {
		log.Printf("[service] WARN: stats cache get failed key=%s: %v", cacheKey, err)
	}

	stats, err := s.repo.GetBillingStats(ctx, from, to)
	if err != nil {
		return domain.BillingStats{}, err
	}

	if err := s.statsCache.Set(ctx, cacheKey, &stats, s.statsTTL); err != nil {
		log.Printf("[service] WARN: stats cache set failed key=%s: %v", cacheKey, err)
	}
	return stats, nil
}

func (s *Service) BuildReceipt(ctx context.Context, billID string) (domain.ReceiptResponse, error) {
	billID = strings.TrimSpace(billID)
	if billID == "" {
		return domain.ReceiptResponse{}, store.ErrInvalidBill
	}
	bill, err := s.repo.GetBillByID(ctx, billID)
	if err != nil {
		return domain.ReceiptResponse{}, err
	}

	lines := []string{
		"Tagihin",
		"========================",
		"No   : " + bill.BillNumber,
		"Date : " + bill.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if bill.CustomerName != "" {
		lines = append(lines, "Cust : "+bill.CustomerName)
	}
	if bill.SellerName != "" {
		lines = append(lines, "Sales: "+bill.SellerName)
	}
	lines = append(lines, "------------------------")
	for _, item := range bill.Items {
		lines = append(lines, fmt.Sprintf("%s x%d", item.Name, item.Quantity))
		lines = append(lines, fmt.Sprintf("  %d", item.TotalCents))
	}
	lines = append(lines,
		"------------------------",
		fmt.Sprintf("Subtotal : %d", bill.SubtotalCents),
		fmt.Sprintf("Total    : %d", bill.TotalCents),
		fmt.Sprintf("Dibayar  : %d", bill.AmountPaidCents),
		fmt.Sprintf("Sisa     : %d", bill.RemainingCents),
		"========================",
		"Terima kasih",
		"",
	)

	escpos := []byte{0x1b, 0x40}
	for _, line := range lines {
		escpos = append(escpos, []byte(line)...)
		escpos = append(escpos, '\n')
	}
	escpos = append(escpos, []byte{0x1d, 0x56, 0x41, 0x10}...)

	return domain.ReceiptResponse{
		BillID:       bill.ID,
		BillNumber:   bill.BillNumber,
		EscposBase64: base64.StdEncoding.EncodeToString(escpos),
		PreviewText:  strings.Join(lines, "\n"),
		FileName:     fmt.Sprintf("receipt-%s.bin", bill.BillNumber),
	}, nil
}

func (s *Service) ListAuditLogs(ctx context.Context, date string, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	var from time.Time
	if strings.TrimSpace(date) == "" {
		from = time.Now().UTC().Add(-24 * time.Hour)
	} else {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, store.ErrInvalidBill
		}
		from = parsed.UTC()
	}
	to := from.Add(24 * time.Hour)

	return s.repo.ListAuditLogs(ctx, from, to, limit)
}

func (s *Service) loadDraft(ctx context.Context, draftID string) (*domain.DraftBill, error) {
	draftID = strings.TrimSpace(draftID)
	if draftID == "" {
		return nil, store.ErrInvalidBill
	}

	draft, err := s.repo.GetDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	// A cashier can only touch drafts they parked themselves.
	actor, _ := ActorFromContext(ctx)
	if actor.Role != "admin" && draft.CashierUsername != "" && draft.CashierUsername != actor.Username {
		return nil, store.ErrNotFound
	}
	return draft, nil
}

func (s *Service) saveComposer(ctx context.Context, composer *billing.Composer, prev *domain.DraftBill) (domain.DraftResponse, error) {
	draft := composer.TouchedSnapshot(time.Now().UTC())
	draft.ID = prev.ID
	draft.CashierUsername = prev.CashierUsername
	draft.Note = prev.Note

	saved, err := s.repo.SaveDraft(ctx, draft)
	if err != nil {
		return domain.DraftResponse{}, err
	}
	return draftResponse(*saved), nil
}

func draftResponse(draft domain.DraftBill) domain.DraftResponse {
	return domain.DraftResponse{
		Draft:  draft,
		Totals: billing.Load(draft).Totals(),
	}
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		log.Printf("[audit] WARN: failed to write audit log action=%s entity=%s/%s: %v", action, entityType, entityID, err)
	}
}

func defaultString(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
