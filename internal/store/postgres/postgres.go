package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"tagihin/backend/internal/domain"
	"tagihin/backend/internal/store"
	"tagihin/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sku, name, COALESCE(model,''), category, price_cents, stock, active
		FROM products
		WHERE active = true
		ORDER BY category, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.SKU, &p.Name, &p.Model, &p.Category, &p.PriceCents, &p.Stock, &p.Active); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.SKU == "" || product.Name == "" || product.Category == "" || product.PriceCents < 1 {
		return nil, store.ErrInvalidBill
	}
	if product.Stock < 0 {
		return nil, store.ErrInvalidBill
	}

	product.Active = true
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (sku, name, model, category, price_cents, stock, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now(),now())
	`, product.SKU, product.Name, nullIfEmpty(product.Model), product.Category, product.PriceCents, product.Stock, product.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidBill
		}
		return nil, err
	}

	created := product
	return &created, nil
}

func (s *Store) GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	var product domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT sku, name, COALESCE(model,''), category, price_cents, stock, active
		FROM products
		WHERE sku = $1
	`, sku).Scan(&product.SKU, &product.Name, &product.Model, &product.Category, &product.PriceCents, &product.Stock, &product.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.SKU == "" || product.Name == "" || product.Category == "" || product.PriceCents < 1 {
		return nil, store.ErrInvalidBill
	}
	if product.Stock < 0 {
		return nil, store.ErrInvalidBill
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, model = $3, category = $4, price_cents = $5, stock = $6, active = $7, updated_at = now()
		WHERE sku = $1
	`, product.SKU, product.Name, nullIfEmpty(product.Model), product.Category, product.PriceCents, product.Stock, product.Active)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := product
	return &updated, nil
}

func (s *Store) GetProductsBySKUs(ctx context.Context, skus []string) (map[string]domain.Product, error) {
	if len(skus) == 0 {
		return map[string]domain.Product{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT sku, name, COALESCE(model,''), category, price_cents, stock, active
		FROM products
		WHERE active = true AND sku = ANY($1)
	`, skus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]domain.Product, len(skus))
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.SKU, &p.Name, &p.Model, &p.Category, &p.PriceCents, &p.Stock, &p.Active); err != nil {
			return nil, err
		}
		result[p.SKU] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if strings.TrimSpace(customer.Name) == "" {
		return nil, store.ErrInvalidBill
	}
	if customer.ID == "" {
		customer.ID = xid.New("cust")
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, phone, address, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, customer.ID, customer.Name, nullIfEmpty(customer.Phone), nullIfEmpty(customer.Address), customer.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidBill
		}
		return nil, err
	}

	created := customer
	return &created, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(phone,''), COALESCE(address,''), created_at
		FROM customers
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 64)
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.CreatedAt = c.CreatedAt.UTC()
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return customers, nil
}

func (s *Store) GetCustomerByID(ctx context.Context, customerID string) (*domain.Customer, error) {
	var customer domain.Customer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(phone,''), COALESCE(address,''), created_at
		FROM customers
		WHERE id = $1
	`, customerID).Scan(&customer.ID, &customer.Name, &customer.Phone, &customer.Address, &customer.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	customer.CreatedAt = customer.CreatedAt.UTC()
	return &customer, nil
}

func (s *Store) CreateSeller(ctx context.Context, seller domain.Seller) (*domain.Seller, error) {
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

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sellers (id, name, phone, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, seller.ID, seller.Name, nullIfEmpty(seller.Phone), seller.Active, seller.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidBill
		}
		return nil, err
	}

	created := seller
	return &created, nil
}

func (s *Store) ListSellers(ctx context.Context) ([]domain.Seller, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(phone,''), active, created_at
		FROM sellers
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sellers := make([]domain.Seller, 0, 16)
	for rows.Next() {
		var sl domain.Seller
		if err := rows.Scan(&sl.ID, &sl.Name, &sl.Phone, &sl.Active, &sl.CreatedAt); err != nil {
			return nil, err
		}
		sl.CreatedAt = sl.CreatedAt.UTC()
		sellers = append(sellers, sl)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sellers, nil
}

func (s *Store) GetSellerByID(ctx context.Context, sellerID string) (*domain.Seller, error) {
	var seller domain.Seller
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(phone,''), active, created_at
		FROM sellers
		WHERE id = $1
	`, sellerID).Scan(&seller.ID, &seller.Name, &seller.Phone, &seller.Active, &seller.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	seller.CreatedAt = seller.CreatedAt.UTC()
	return &seller, nil
}

func (s *Store) SaveDraft(ctx context.Context, draft domain.DraftBill) (*domain.DraftBill, error) {
	if draft.ID == "" {
		draft.ID = xid.New("draft")
	}
	if draft.UpdatedAt.IsZero() {
		draft.UpdatedAt = time.Now().UTC()
	}

	itemsJSON, err := json.Marshal(draft.Items)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO bill_drafts (
			id, items, customer_id, seller_id, amount_paid_cents, previous_remaining_cents,
			discount_type, fully_paid, cashier_username, note, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id)
		DO UPDATE SET items = EXCLUDED.items, customer_id = EXCLUDED.customer_id,
			seller_id = EXCLUDED.seller_id, amount_paid_cents = EXCLUDED.amount_paid_cents,
			previous_remaining_cents = EXCLUDED.previous_remaining_cents,
			discount_type = EXCLUDED.discount_type, fully_paid = EXCLUDED.fully_paid,
			note = EXCLUDED.note, updated_at = EXCLUDED.updated_at
	`, draft.ID, itemsJSON, nullIfEmpty(draft.CustomerID), nullIfEmpty(draft.SellerID),
		draft.AmountPaidCents, draft.PreviousRemainingCents, draft.DiscountType,
		draft.FullyPaid, draft.CashierUsername, draft.Note, draft.UpdatedAt)
	if err != nil {
		return nil, err
	}

	saved := draft
	return &saved, nil
}

func (s *Store) GetDraft(ctx context.Context, draftID string) (*domain.DraftBill, error) {
	var draft domain.DraftBill
	var itemsRaw []byte
	var customerID sql.NullString
	var sellerID sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, items, customer_id, seller_id, amount_paid_cents, previous_remaining_cents,
			discount_type, fully_paid, cashier_username, note, updated_at
		FROM bill_drafts
		WHERE id = $1
	`, draftID).Scan(
		&draft.ID,
		&itemsRaw,
		&customerID,
		&sellerID,
		&draft.AmountPaidCents,
		&draft.PreviousRemainingCents,
		&draft.DiscountType,
		&draft.FullyPaid,
		&draft.CashierUsername,
		&draft.Note,
		&draft.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if customerID.Valid {
		draft.CustomerID = customerID.String
	}
	if sellerID.Valid {
		draft.SellerID = sellerID.String
	}
	draft.UpdatedAt = draft.UpdatedAt.UTC()
	if len(itemsRaw) > 0 {
		if err := json.Unmarshal(itemsRaw, &draft.Items); err != nil {
			return nil, err
		}
	}
	return &draft, nil
}

func (s *Store) ListDrafts(ctx context.Context, cashierUsername string, limit int) ([]domain.DraftBill, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, items, customer_id, seller_id, amount_paid_cents, previous_remaining_cents,
			discount_type, fully_paid, cashier_username, note, updated_at
		FROM bill_drafts
		WHERE ($1 = '' OR cashier_username = $1)
		ORDER BY updated_at DESC
		LIMIT $2
	`, cashierUsername, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	drafts := make([]domain.DraftBill, 0, limit)
	for rows.Next() {
		var draft domain.DraftBill
		var itemsRaw []byte
		var customerID sql.NullString
		var sellerID sql.NullString
		if err := rows.Scan(
			&draft.ID,
			&itemsRaw,
			&customerID,
			&sellerID,
			&draft.AmountPaidCents,
			&draft.PreviousRemainingCents,
			&draft.DiscountType,
			&draft.FullyPaid,
			&draft.CashierUsername,
			&draft.Note,
			&draft.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if customerID.Valid {
			draft.CustomerID = customerID.String
		}
		if sellerID.Valid {
			draft.SellerID = sellerID.String
		}
		draft.UpdatedAt = draft.UpdatedAt.UTC()
		if len(itemsRaw) > 0 {
			if err := json.Unmarshal(itemsRaw, &draft.Items); err != nil {
				return nil, err
			}
		}
		drafts = append(drafts, draft)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return drafts, nil
}

func (s *Store) DeleteDraft(ctx context.Context, draftID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bill_drafts WHERE id = $1`, draftID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateBill(ctx context.Context, bill domain.Bill) (*domain.Bill, error) {
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

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	err = pgTx.QueryRowContext(ctx, `
		SELECT name FROM sellers WHERE id = $1 AND active = true
	`, bill.SellerID).Scan(&bill.SellerName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if bill.CustomerID != "" {
		err = pgTx.QueryRowContext(ctx, `
			SELECT name FROM customers WHERE id = $1
		`, bill.CustomerID).Scan(&bill.CustomerName)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, store.ErrNotFound
			}
			return nil, err
		}
	}

	skus := uniqueSKUs(bill.Items)
	if len(skus) == 0 {
		return nil, store.ErrInvalidBill
	}

	stockRows, err := pgTx.QueryContext(ctx, `
		SELECT sku, stock
		FROM products
		WHERE active = true AND sku = ANY($1)
		FOR UPDATE
	`, skus)
	if err != nil {
		return nil, err
	}
	stockMap := make(map[string]int, len(skus))
	for stockRows.Next() {
		var sku string
		var stock int
		if err := stockRows.Scan(&sku, &stock); err != nil {
			_ = stockRows.Close()
			return nil, err
		}
		stockMap[sku] = stock
	}
	if err := stockRows.Err(); err != nil {
		_ = stockRows.Close()
		return nil, err
	}
	_ = stockRows.Close()

	for _, line := range bill.Items {
		if line.Quantity < 1 {
			return nil, store.ErrInvalidBill
		}
		stock, exists := stockMap[line.ProductSKU]
		if !exists {
			return nil, fmt.Errorf("sku %s unavailable", line.ProductSKU)
		}
		if stock < line.Quantity {
			return nil, store.ErrInsufficientStock
		}
		stockMap[line.ProductSKU] = stock - line.Quantity
	}

	for _, line := range bill.Items {
		_, err = pgTx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - $1, updated_at = now()
			WHERE sku = $2
		`, line.Quantity, line.ProductSKU)
		if err != nil {
			return nil, err
		}
	}

	if bill.ID == "" {
		bill.ID = xid.New("bill")
	}
	if bill.CreatedAt.IsZero() {
		bill.CreatedAt = time.Now().UTC()
	}
	if bill.Status == "" {
		if bill.RemainingCents == 0 {
			bill.Status = domain.BillStatusCompleted
		} else {
			bill.Status = domain.BillStatusPending
		}
	}
	if bill.BillNumber == "" {
		dateKey := bill.CreatedAt.UTC().Format("20060102")
		var seq int
		err = pgTx.QueryRowContext(ctx, `
			INSERT INTO bill_counters (date_key, seq)
			VALUES ($1, 1)
			ON CONFLICT (date_key)
			DO UPDATE SET seq = bill_counters.seq + 1
			RETURNING seq
		`, dateKey).Scan(&seq)
		if err != nil {
			return nil, err
		}
		bill.BillNumber = fmt.Sprintf("INV-%s-%04d", dateKey, seq)
	}

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO bills (
			id, bill_number, customer_id, seller_id, subtotal_cents, discount_cents,
			discount_type, total_cents, amount_paid_cents, remaining_cents,
			previous_remaining_cents, payment_method, status, cancel_reason, cancelled_at, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`, bill.ID, bill.BillNumber, nullIfEmpty(bill.CustomerID), bill.SellerID,
		bill.SubtotalCents, bill.DiscountCents, bill.DiscountType, bill.TotalCents,
		bill.AmountPaidCents, bill.RemainingCents, bill.PreviousRemainingCents,
		bill.PaymentMethod, bill.Status, nullIfEmpty(bill.CancelReason), nullTime(bill.CancelledAt), bill.CreatedAt)
	if err != nil {
		return nil, err
	}

	for _, line := range bill.Items {
		_, err := pgTx.ExecContext(ctx, `
			INSERT INTO bill_items (bill_id, product_sku, name, model, category, unit_price_cents, qty, total_cents)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, bill.ID, line.ProductSKU, line.Name, nullIfEmpty(line.Model), nullIfEmpty(line.Category),
			line.UnitPriceCents, line.Quantity, line.TotalCents)
		if err != nil {
			return nil, err
		}
	}

	if bill.AmountPaidCents > 0 {
		_, err = pgTx.ExecContext(ctx, `
			INSERT INTO bill_payments (id, bill_id, amount_cents, note, recorded_by, created_at)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, xid.New("pay"), bill.ID, bill.AmountPaidCents, "initial payment", nil, bill.CreatedAt)
		if err != nil {
			return nil, err
		}
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	return &bill, nil
}

func (s *Store) GetBillByID(ctx context.Context, billID string) (*domain.Bill, error) {
	return s.findBill(ctx, s.db, billID)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) findBill(ctx context.Context, q queryer, billID string) (*domain.Bill, error) {
	var bill domain.Bill
	var customerID sql.NullString
	var customerName sql.NullString
	var cancelReason sql.NullString
	var cancelledAt sql.NullTime

	query := `
		SELECT b.id, b.bill_number, b.customer_id, COALESCE(c.name,''), b.seller_id, sl.name,
			b.subtotal_cents, b.discount_cents, b.discount_type, b.total_cents,
			b.amount_paid_cents, b.remaining_cents, b.previous_remaining_cents,
			b.payment_method, b.status, b.cancel_reason, b.cancelled_at, b.created_at
		FROM bills b
		JOIN sellers sl ON sl.id = b.seller_id
		LEFT JOIN customers c ON c.id = b.customer_id
		WHERE b.id = $1
	`

	err := q.QueryRowContext(ctx, query, billID).Scan(
		&bill.ID,
		&bill.BillNumber,
		&customerID,
		&customerName,
		&bill.SellerID,
		&bill.SellerName,
		&bill.SubtotalCents,
		&bill.DiscountCents,
		&bill.DiscountType,
		&bill.TotalCents,
		&bill.AmountPaidCents,
		&bill.RemainingCents,
		&bill.PreviousRemainingCents,
		&bill.PaymentMethod,
		&bill.Status,
		&cancelReason,
		&cancelledAt,
		&bill.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if customerID.Valid {
		bill.CustomerID = customerID.String
	}
	if customerName.Valid {
		bill.CustomerName = customerName.String
	}
	if cancelReason.Valid {
		bill.CancelReason = cancelReason.String
	}
	if cancelledAt.Valid {
		at := cancelledAt.Time.UTC()
		bill.CancelledAt = &at
	}
	bill.CreatedAt = bill.CreatedAt.UTC()

	rows, err := q.QueryContext(ctx, `
		SELECT product_sku, name, COALESCE(model,''), COALESCE(category,''), unit_price_cents, qty, total_cents
		FROM bill_items
		WHERE bill_id = $1
		ORDER BY id ASC
	`, bill.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.BillLine, 0, 8)
	for rows.Next() {
		var line domain.BillLine
		if err := rows.Scan(&line.ProductSKU, &line.Name, &line.Model, &line.Category, &line.UnitPriceCents, &line.Quantity, &line.TotalCents); err != nil {
			return nil, err
		}
		items = append(items, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	bill.Items = items

	return &bill, nil
}

func (s *Store) ListBills(ctx context.Context, filter domain.BillFilter) ([]domain.Bill, error) {
	limit := filter.Limit
	if limit < 1 {
		limit = 100
	}

	args := make([]any, 0, 6)
	conditions := make([]string, 0, 5)
	addCond := func(cond string, val any) {
		args = append(args, val)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}
	if filter.Status != "" {
		addCond("b.status = $%d", filter.Status)
	}
	if filter.CustomerID != "" {
		addCond("b.customer_id = $%d", filter.CustomerID)
	}
	if filter.SellerID != "" {
		addCond("b.seller_id = $%d", filter.SellerID)
	}
	if !filter.From.IsZero() {
		addCond("b.created_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		addCond("b.created_at < $%d", filter.To)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT b.id, b.bill_number, b.customer_id, COALESCE(c.name,''), b.seller_id, sl.name,
			b.subtotal_cents, b.discount_cents, b.discount_type, b.total_cents,
			b.amount_paid_cents, b.remaining_cents, b.previous_remaining_cents,
			b.payment_method, b.status, b.cancel_reason, b.cancelled_at, b.created_at
		FROM bills b
		JOIN sellers sl ON sl.id = b.seller_id
		LEFT JOIN customers c ON c.id = b.customer_id
		%s
		ORDER BY b.created_at DESC
		LIMIT $%d
	`, where, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bills := make([]domain.Bill, 0, limit)
	for rows.Next() {
		var bill domain.Bill
		var customerID sql.NullString
		var customerName sql.NullString
		var cancelReason sql.NullString
		var cancelledAt sql.NullTime
		if err := rows.Scan(
			&bill.ID,
			&bill.BillNumber,
			&customerID,
			&customerName,
			&bill.SellerID,
			&bill.SellerName,
			&bill.SubtotalCents,
			&bill.DiscountCents,
			&bill.DiscountType,
			&bill.TotalCents,
			&bill.AmountPaidCents,
			&bill.RemainingCents,
			&bill.PreviousRemainingCents,
			&bill.PaymentMethod,
			&bill.Status,
			&cancelReason,
			&cancelledAt,
			&bill.CreatedAt,
		); err != nil {
			return nil, err
		}
		if customerID.Valid {
			bill.CustomerID = customerID.String
		}
		if customerName.Valid {
			bill.CustomerName = customerName.String
		}
		if cancelReason.Valid {
			bill.CancelReason = cancelReason.String
		}
		if cancelledAt.Valid {
			at := cancelledAt.Time.UTC()
			bill.CancelledAt = &at
		}
		bill.CreatedAt = bill.CreatedAt.UTC()
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bills, nil
}

func (s *Store) ApplyBillPayment(ctx context.Context, billID string, payment domain.BillPayment) (*domain.Bill, error) {
	if payment.AmountCents < 1 {
		return nil, store.ErrInvalidBill
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var totalCents int64
	var amountPaidCents int64
	var status string
	err = pgTx.QueryRowContext(ctx, `
		SELECT total_cents, amount_paid_cents, status
		FROM bills
		WHERE id = $1
		FOR UPDATE
	`, billID).Scan(&totalCents, &amountPaidCents, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if status == domain.BillStatusCancelled {
		return nil, store.ErrInvalidBill
	}
	remaining := totalCents - amountPaidCents
	if payment.AmountCents > remaining {
		return nil, store.ErrInvalidBill
	}

	newPaid := amountPaidCents + payment.AmountCents
	newRemaining := totalCents - newPaid
	newStatus := domain.BillStatusPending
	if newRemaining == 0 {
		newStatus = domain.BillStatusCompleted
	}

	_, err = pgTx.ExecContext(ctx, `
		UPDATE bills
		SET amount_paid_cents = $2, remaining_cents = $3, status = $4
		WHERE id = $1
	`, billID, newPaid, newRemaining, newStatus)
	if err != nil {
		return nil, err
	}

	if payment.ID == "" {
		payment.ID = xid.New("pay")
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO bill_payments (id, bill_id, amount_cents, note, recorded_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, payment.ID, billID, payment.AmountCents, payment.Note, nullIfEmpty(payment.RecordedBy), payment.CreatedAt)
	if err != nil {
		return nil, err
	}

	bill, err := s.findBill(ctx, pgTx, billID)
	if err != nil {
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	return bill, nil
}

func (s *Store) ListBillPayments(ctx context.Context, billID string) ([]domain.BillPayment, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM bills WHERE id = $1)`, billID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, store.ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, bill_id, amount_cents, COALESCE(note,''), COALESCE(recorded_by,''), created_at
		FROM bill_payments
		WHERE bill_id = $1
		ORDER BY created_at ASC, id ASC
	`, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]domain.BillPayment, 0, 8)
	for rows.Next() {
		var p domain.BillPayment
		if err := rows.Scan(&p.ID, &p.BillID, &p.AmountCents, &p.Note, &p.RecordedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt = p.CreatedAt.UTC()
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

func (s *Store) CancelBill(ctx context.Context, billID string, reason string, at time.Time) (*domain.Bill, error) {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var status string
	err = pgTx.QueryRowContext(ctx, `
		SELECT status
		FROM bills
		WHERE id = $1
		FOR UPDATE
	`, billID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if status == domain.BillStatusCancelled {
		return nil, store.ErrInvalidBill
	}

	itemRows, err := pgTx.QueryContext(ctx, `
		SELECT product_sku, qty
		FROM bill_items
		WHERE bill_id = $1
	`, billID)
	if err != nil {
		return nil, err
	}
	type restockLine struct {
		sku string
		qty int
	}
	lines := make([]restockLine, 0, 8)
	for itemRows.Next() {
		var line restockLine
		if err := itemRows.Scan(&line.sku, &line.qty); err != nil {
			_ = itemRows.Close()
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := itemRows.Err(); err != nil {
		_ = itemRows.Close()
		return nil, err
	}
	_ = itemRows.Close()

	for _, line := range lines {
		_, err = pgTx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock + $1, updated_at = now()
			WHERE sku = $2
		`, line.qty, line.sku)
		if err != nil {
			return nil, err
		}
	}

	_, err = pgTx.ExecContext(ctx, `
		UPDATE bills
		SET status = $2, cancel_reason = $3, cancelled_at = $4
		WHERE id = $1
	`, billID, domain.BillStatusCancelled, reason, at)
	if err != nil {
		return nil, err
	}

	bill, err := s.findBill(ctx, pgTx, billID)
	if err != nil {
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	return bill, nil
}

func (s *Store) GetBillingStats(ctx context.Context, from time.Time, to time.Time) (domain.BillingStats, error) {
	stats := domain.BillingStats{
		From:     from.UTC().Format("2006-01-02"),
		To:       to.UTC().Format("2006-01-02"),
		ByStatus: map[string]int64{},
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*),
			COALESCE(SUM(total_cents), 0),
			COALESCE(SUM(amount_paid_cents), 0),
			COALESCE(SUM(remaining_cents), 0)
		FROM bills
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY status
	`, from, to)
	if err != nil {
		return domain.BillingStats{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int64
		var gross int64
		var collected int64
		var outstanding int64
		if err := rows.Scan(&status, &count, &gross, &collected, &outstanding); err != nil {
			return domain.BillingStats{}, err
		}
		stats.Bills += count
		stats.ByStatus[status] = count
		if status == domain.BillStatusCancelled {
			continue
		}
		stats.GrossCents += gross
		stats.CollectedCents += collected
		stats.OutstandingCents += outstanding
	}
	if err := rows.Err(); err != nil {
		return domain.BillingStats{}, err
	}
	return stats, nil
}

func (s *Store) GetCustomerOutstanding(ctx context.Context, customerID string) (domain.CustomerOutstanding, error) {
	customer, err := s.GetCustomerByID(ctx, customerID)
	if err != nil {
		return domain.CustomerOutstanding{}, err
	}

	bills, err := s.ListBills(ctx, domain.BillFilter{
		CustomerID: customerID,
		Status:     domain.BillStatusPending,
	})
	if err != nil {
		return domain.CustomerOutstanding{}, err
	}

	result := domain.CustomerOutstanding{
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		OpenBills:    make([]domain.Bill, 0, len(bills)),
	}
	for i := len(bills) - 1; i >= 0; i-- {
		bill := bills[i]
		if bill.RemainingCents == 0 {
			continue
		}
		result.OutstandingCents += bill.RemainingCents
		result.OpenBills = append(result.OpenBills, bill)
	}
	return result, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (
			id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE created_at >= $1
			AND created_at < $2
		ORDER BY created_at DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.ActorUsername, &entry.ActorRole, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidBill
	}
	if user.Role == "" {
		user.Role = "cashier"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidBill
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM app_users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidBill
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE app_users
		SET password = $2, updated_at = now()
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func uniqueSKUs(items []domain.BillLine) []string {
	if len(items) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.ProductSKU == "" {
			continue
		}
		set[item.ProductSKU] = struct{}{}
	}

	skus := make([]string, 0, len(set))
	for sku := range set {
		skus = append(skus, sku)
	}
	sort.Strings(skus)
	return skus
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}
