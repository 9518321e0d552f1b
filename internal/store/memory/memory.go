package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tagihin/backend/internal/domain"
	"tagihin/backend/internal/store"
	"tagihin/backend/internal/xid"
)

type Store struct {
	mu               sync.RWMutex
	products         map[string]domain.Product
	customersByID    map[string]domain.Customer
	sellersByID      map[string]domain.Seller
	draftsByID       map[string]domain.DraftBill
	billsByID        map[string]*domain.Bill
	paymentsByBillID map[string][]domain.BillPayment
	billSeqByDate    map[string]int
	auditLogs        []domain.AuditLog
	usersByUsername  map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning printed to stdout. These credentials are never used in production
// (the backend uses PostgreSQL when DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	products := []domain.Product{
		{SKU: "SKU-BERAS-01", Name: "Beras Premium 5kg", Model: "Cap Lele", Category: "grocery", PriceCents: 72500, Stock: 40, Active: true},
		{SKU: "SKU-MINYAK-01", Name: "Minyak Goreng 2L", Model: "Tropical", Category: "grocery", PriceCents: 38500, Stock: 60, Active: true},
		{SKU: "SKU-GULA-01", Name: "Gula Pasir 1kg", Category: "grocery", PriceCents: 17400, Stock: 80, Active: true},
		{SKU: "SKU-KOPI-01", Name: "Kopi Bubuk 200g", Model: "Kapal Api", Category: "beverage", PriceCents: 15600, Stock: 55, Active: true},
		{SKU: "SKU-TEH-01", Name: "Teh Celup Isi 25", Model: "Sariwangi", Category: "beverage", PriceCents: 9800, Stock: 70, Active: true},
		{SKU: "SKU-SUSU-01", Name: "Susu Kental Manis", Model: "Frisian Flag", Category: "dairy", PriceCents: 12500, Stock: 90, Active: true},
		{SKU: "SKU-SABUN-01", Name: "Sabun Cuci 800g", Model: "Rinso", Category: "household", PriceCents: 21900, Stock: 45, Active: true},
		{SKU: "SKU-SEMEN-01", Name: "Semen 40kg", Model: "Tiga Roda", Category: "building", PriceCents: 65000, Stock: 30, Active: true},
		{SKU: "SKU-CAT-01", Name: "Cat Tembok 5kg", Model: "Avitex", Category: "building", PriceCents: 98000, Stock: 18, Active: true},
		{SKU: "SKU-PAKU-01", Name: "Paku 5cm 1kg", Category: "hardware", PriceCents: 24000, Stock: 25, Active: true},
	}

	now := time.Now().UTC()
	customers := []domain.Customer{
		{ID: "cust-seed-01", Name: "Toko Berkah Jaya", Phone: "0812-3456-7801", Address: "Jl. Pasar Baru No. 12", CreatedAt: now},
		{ID: "cust-seed-02", Name: "Warung Bu Sari", Phone: "0812-3456-7802", Address: "Jl. Melati No. 4", CreatedAt: now},
		{ID: "cust-seed-03", Name: "CV Maju Bersama", Phone: "0812-3456-7803", Address: "Jl. Raya Industri Km 3", CreatedAt: now},
	}
	sellers := []domain.Seller{
		{ID: "seller-seed-01", Name: "Andi Pratama", Phone: "0813-1111-2201", Active: true, CreatedAt: now},
		{ID: "seller-seed-02", Name: "Rina Kusuma", Phone: "0813-1111-2202", Active: true, CreatedAt: now},
	}

	productMap := make(map[string]domain.Product, len(products))
	for _, p := range products {
		productMap[p.SKU] = p
	}
	customerMap := make(map[string]domain.Customer, len(customers))
	for _, c := range customers {
		customerMap[c.ID] = c
	}
	sellerMap := make(map[string]domain.Seller, len(sellers))
	for _, sl := range sellers {
		sellerMap[sl.ID] = sl
	}

	return &Store{
		products:         productMap,
		customersByID:    customerMap,
		sellersByID:      sellerMap,
		draftsByID:       make(map[string]domain.DraftBill),
		billsByID:        make(map[string]*domain.Bill),
		paymentsByBillID: make(map[string][]domain.BillPayment),
		billSeqByDate:    make(map[string]int),
		auditLogs:        make([]domain.AuditLog, 0, 128),
		usersByUsername:  seedUsers(),
	}
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if !p.Active {
			continue
		}
		products = append(products, p)
	}

	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.Category == b.Category {
			return cmpString(a.Name, b.Name)
		}
		return cmpString(a.Category, b.Category)
	})

	return products, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.SKU == "" || product.Name == "" || product.Category == "" || product.PriceCents < 1 {
		return nil, store.ErrInvalidBill
	}
	if product.Stock < 0 {
		return nil, store.ErrInvalidBill
	}
	if _, exists := s.products[product.SKU]; exists {
		return nil, store.ErrInvalidBill
	}

	product.Active = true
	s.products[product.SKU] = product
	created := product
	return &created, nil
}

func (s *Store) GetProductBySKU(_ context.Context, sku string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[sku]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.SKU == "" || product.Name == "" || product.Category == "" || product.PriceCents < 1 {
		return nil, store.ErrInvalidBill
	}
	if product.Stock < 0 {
		return nil, store.ErrInvalidBill
	}
	if _, exists := s.products[product.SKU]; !exists {
		return nil, store.ErrNotFound
	}

	s.products[product.SKU] = product
	updated := product
	return &updated, nil
}

func (s *Store) GetProductsBySKUs(_ context.Context, skus []string) (map[string]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Product, len(skus))
	for _, sku := range skus {
		if p, ok := s.products[sku]; ok && p.Active {
			result[sku] = p
		}
	}
	return result, nil
}

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(customer.Name) == "" {
		return nil, store.ErrInvalidBill
	}
	if customer.ID == "" {
		customer.ID = xid.New("cust")
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now().UTC()
	}

	s.customersByID[customer.ID] = customer
	created := customer
	return &created, nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.Customer, 0, len(s.customersByID))
	for _, c := range s.customersByID {
		customers = append(customers, c)
	}
	slices.SortFunc(customers, func(a, b domain.Customer) int {
		return cmpString(a.Name, b.Name)
	})
	return customers, nil
}

func (s *Store) GetCustomerByID(_ context.Context, customerID string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, exists := s.customersByID[customerID]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyCustomer := customer
	return &copyCustomer, nil
}

func (s *Store) CreateSeller(_ context.Context, seller domain.Seller) (*domain.Seller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(seller.Name) == "" {
		return nil, store.ErrInvalidBill
	}
	if seller.ID == "" {
		seller.ID = xid.New("seller")
	}
	if seller.CreatedAt.IsZero() {
		seller.CreatedAt = time.Now().UTC()
	}
	seller.Active = true

	s.sellersByID[seller.ID] = seller
	created := seller
	return &created, nil
}

func (s *Store) ListSellers(_ context.Context) ([]domain.Seller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sellers := make([]domain.Seller, 0, len(s.sellersByID))
	for _, sl := range s.sellersByID {
		sellers = append(sellers, sl)
	}
	slices.SortFunc(sellers, func(a, b domain.Seller) int {
		return cmpString(a.Name, b.Name)
	})
	return sellers, nil
}

func (s *Store) GetSellerByID(_ context.Context, sellerID string) (*domain.Seller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seller, exists := s.sellersByID[sellerID]
	if !exists {
		return nil, store.ErrNotFound
	}
	copySeller := seller
	return &copySeller, nil
}

func (s *Store) SaveDraft(_ context.Context, draft domain.DraftBill) (*domain.DraftBill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if draft.ID == "" {
		draft.ID = xid.New("draft")
	}
	if draft.UpdatedAt.IsZero() {
		draft.UpdatedAt = time.Now().UTC()
	}

	s.draftsByID[draft.ID] = cloneDraft(draft)
	saved := cloneDraft(s.draftsByID[draft.ID])
	return &saved, nil
}

func (s *Store) GetDraft(_ context.Context, draftID string) (*domain.DraftBill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	draft, exists := s.draftsByID[draftID]
	if !exists {
		return nil, store.ErrNotFound
	}
	result := cloneDraft(draft)
	return &result, nil
}

func (s *Store) ListDrafts(_ context.Context, cashierUsername string, limit int) ([]domain.DraftBill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.DraftBill, 0, 16)
	for _, draft := range s.draftsByID {
		if cashierUsername != "" && draft.CashierUsername != cashierUsername {
			continue
		}
		result = append(result, cloneDraft(draft))
	}
	slices.SortFunc(result, func(a, b domain.DraftBill) int {
		if a.UpdatedAt.Equal(b.UpdatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.UpdatedAt.After(b.UpdatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) DeleteDraft(_ context.Context, draftID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.draftsByID[draftID]; !exists {
		return store.ErrNotFound
	}
	delete(s.draftsByID, draftID)
	return nil
}

func (s *Store) CreateBill(_ context.Context, bill domain.Bill) (*domain.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(bill.Items) == 0 || bill.SellerID == "" {
		return nil, store.ErrInvalidBill
	}
	if bill.TotalCents != bill.SubtotalCents-bill.DiscountCents {
		return nil, store.ErrInvalidBill
	}
	if bill.AmountPaidCents < 0 || bill.AmountPaidCents > bill.TotalCents {
		return nil, store.ErrInvalidBill
	}
	if bill.AmountPaidCents+bill.RemainingCents != bill.TotalCents {
		return nil, store.ErrInvalidBill
	}
	if _, exists := s.sellersByID[bill.SellerID]; !exists {
		return nil, store.ErrNotFound
	}
	if bill.CustomerID != "" {
		if _, exists := s.customersByID[bill.CustomerID]; !exists {
			return nil, store.ErrNotFound
		}
	}

	for _, line := range bill.Items {
		if line.Quantity < 1 {
			return nil, store.ErrInvalidBill
		}
		product, exists := s.products[line.ProductSKU]
		if !exists || !product.Active {
			return nil, fmt.Errorf("sku %s unavailable", line.ProductSKU)
		}
		if product.Stock < line.Quantity {
			return nil, store.ErrInsufficientStock
		}
	}
	for _, line := range bill.Items {
		product := s.products[line.ProductSKU]
		product.Stock -= line.Quantity
		s.products[line.ProductSKU] = product
	}

	if bill.ID == "" {
		bill.ID = xid.New("bill")
	}
	if bill.CreatedAt.IsZero() {
		bill.CreatedAt = time.Now().UTC()
	}
	if bill.BillNumber == "" {
		bill.BillNumber = s.nextBillNumberLocked(bill.CreatedAt)
	}
	if bill.Status == "" {
		if bill.RemainingCents == 0 {
			bill.Status = domain.BillStatusCompleted
		} else {
			bill.Status = domain.BillStatusPending
		}
	}
	if customer, ok := s.customersByID[bill.CustomerID]; ok {
		bill.CustomerName = customer.Name
	}
	if seller, ok := s.sellersByID[bill.SellerID]; ok {
		bill.SellerName = seller.Name
	}

	billCopy := cloneBill(&bill)
	s.billsByID[bill.ID] = billCopy
	if bill.AmountPaidCents > 0 {
		s.paymentsByBillID[bill.ID] = append(s.paymentsByBillID[bill.ID], domain.BillPayment{
			ID:          xid.New("pay"),
			BillID:      bill.ID,
			AmountCents: bill.AmountPaidCents,
			Note:        "initial payment",
			CreatedAt:   bill.CreatedAt,
		})
	}

	return cloneBill(billCopy), nil
}

// nextBillNumberLocked allocates the next sequential invoice number for the
// bill's calendar day. Caller must hold s.mu.
func (s *Store) nextBillNumberLocked(at time.Time) string {
	dateKey := at.UTC().Format("20060102")
	s.billSeqByDate[dateKey]++
	return fmt.Sprintf("INV-%s-%04d", dateKey, s.billSeqByDate[dateKey])
}

func (s *Store) GetBillByID(_ context.Context, billID string) (*domain.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bill, exists := s.billsByID[billID]
	if !exists {
		return nil, store.ErrNotFound
	}
	return cloneBill(bill), nil
}

func (s *Store) ListBills(_ context.Context, filter domain.BillFilter) ([]domain.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Bill, 0, 64)
	for _, bill := range s.billsByID {
		if filter.Status != "" && bill.Status != filter.Status {
			continue
		}
		if filter.CustomerID != "" && bill.CustomerID != filter.CustomerID {
			continue
		}
		if filter.SellerID != "" && bill.SellerID != filter.SellerID {
			continue
		}
		if !filter.From.IsZero() && bill.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !bill.CreatedAt.Before(filter.To) {
			continue
		}
		result = append(result, *cloneBill(bill))
	}

	slices.SortFunc(result, func(a, b domain.Bill) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (s *Store) ApplyBillPayment(_ context.Context, billID string, payment domain.BillPayment) (*domain.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bill, exists := s.billsByID[billID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if bill.Status == domain.BillStatusCancelled {
		return nil, store.ErrInvalidBill
	}
	if payment.AmountCents < 1 {
		return nil, store.ErrInvalidBill
	}
	remaining := bill.TotalCents - bill.AmountPaidCents
	if payment.AmountCents > remaining {
		return nil, store.ErrInvalidBill
	}

	if payment.ID == "" {
		payment.ID = xid.New("pay")
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	payment.BillID = billID

	bill.AmountPaidCents += payment.AmountCents
	bill.RemainingCents = bill.TotalCents - bill.AmountPaidCents
	if bill.RemainingCents == 0 {
		bill.Status = domain.BillStatusCompleted
	} else {
		bill.Status = domain.BillStatusPending
	}
	s.paymentsByBillID[billID] = append(s.paymentsByBillID[billID], payment)

	return cloneBill(bill), nil
}

func (s *Store) ListBillPayments(_ context.Context, billID string) ([]domain.BillPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.billsByID[billID]; !exists {
		return nil, store.ErrNotFound
	}
	payments := s.paymentsByBillID[billID]
	result := make([]domain.BillPayment, len(payments))
	copy(result, payments)
	return result, nil
}

func (s *Store) CancelBill(_ context.Context, billID string, reason string, at time.Time) (*domain.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bill, exists := s.billsByID[billID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if bill.Status == domain.BillStatusCancelled {
		return nil, store.ErrInvalidBill
	}

	for _, line := range bill.Items {
		product, ok := s.products[line.ProductSKU]
		if !ok {
			continue
		}
		product.Stock += line.Quantity
		s.products[line.ProductSKU] = product
	}

	bill.Status = domain.BillStatusCancelled
	bill.CancelReason = reason
	cancelledAt := at
	bill.CancelledAt = &cancelledAt

	return cloneBill(bill), nil
}

func (s *Store) GetBillingStats(_ context.Context, from time.Time, to time.Time) (domain.BillingStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.BillingStats{
		From:     from.UTC().Format("2006-01-02"),
		To:       to.UTC().Format("2006-01-02"),
		ByStatus: map[string]int64{},
	}
	for _, bill := range s.billsByID {
		if bill.CreatedAt.Before(from) || !bill.CreatedAt.Before(to) {
			continue
		}
		stats.Bills++
		stats.ByStatus[bill.Status]++
		if bill.Status == domain.BillStatusCancelled {
			continue
		}
		stats.GrossCents += bill.TotalCents
		stats.CollectedCents += bill.AmountPaidCents
		stats.OutstandingCents += bill.RemainingCents
	}
	return stats, nil
}

func (s *Store) GetCustomerOutstanding(_ context.Context, customerID string) (domain.CustomerOutstanding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, exists := s.customersByID[customerID]
	if !exists {
		return domain.CustomerOutstanding{}, store.ErrNotFound
	}

	result := domain.CustomerOutstanding{
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		OpenBills:    make([]domain.Bill, 0, 8),
	}
	for _, bill := range s.billsByID {
		if bill.CustomerID != customerID {
			continue
		}
		if bill.Status != domain.BillStatusPending || bill.RemainingCents == 0 {
			continue
		}
		result.OutstandingCents += bill.RemainingCents
		result.OpenBills = append(result.OpenBills, *cloneBill(bill))
	}
	slices.SortFunc(result.OpenBills, func(a, b domain.Bill) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(a.ID, b.ID)
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return result, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.AuditLog, 0, 64)
	for _, entry := range s.auditLogs {
		if entry.CreatedAt.Before(from) || !entry.CreatedAt.Before(to) {
			continue
		}
		result = append(result, entry)
	}

	slices.SortFunc(result, func(a, b domain.AuditLog) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidBill
	}
	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrInvalidBill
	}
	user.Username = username
	if user.Role == "" {
		user.Role = "cashier"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmpString(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidBill
	}
	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cloneBill(src *domain.Bill) *domain.Bill {
	if src == nil {
		return nil
	}
	dup := *src
	items := make([]domain.BillLine, len(src.Items))
	copy(items, src.Items)
	dup.Items = items
	if src.CancelledAt != nil {
		at := src.CancelledAt.UTC()
		dup.CancelledAt = &at
	}
	return &dup
}

func cloneDraft(src domain.DraftBill) domain.DraftBill {
	dup := src
	items := make([]domain.LineItem, len(src.Items))
	copy(items, src.Items)
	dup.Items = items
	return dup
}
