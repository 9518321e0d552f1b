package domain

import "time"

type Product struct {
	SKU        string `json:"sku"`
	Name       string `json:"name"`
	Model      string `json:"model"`
	Category   string `json:"category"`
	PriceCents int64  `json:"price_cents"`
	Stock      int    `json:"stock"`
	Active     bool   `json:"active"`
}

type ProductCreateRequest struct {
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	Model        string `json:"model"`
	Category     string `json:"category"`
	PriceCents   int64  `json:"price_cents"`
	InitialStock int    `json:"initial_stock"`
}

type ProductUpdateRequest struct {
	Name       *string `json:"name,omitempty"`
	Model      *string `json:"model,omitempty"`
	Category   *string `json:"category,omitempty"`
	PriceCents *int64  `json:"price_cents,omitempty"`
	Stock      *int    `json:"stock,omitempty"`
	Active     *bool   `json:"active,omitempty"`
}

type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CustomerCreateRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type Seller struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type SellerCreateRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// LineItem is one product entry on an in-progress bill. Name, model, category
// and stock are snapshots taken at add time; later catalog changes do not
// retroactively alter the line.
type LineItem struct {
	ProductSKU     string `json:"product_sku"`
	Name           string `json:"name"`
	Model          string `json:"model,omitempty"`
	Category       string `json:"category,omitempty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	StockAtAdd     int    `json:"stock_at_add"`
}

// BillLine is a frozen line on a submitted or persisted bill, carrying the
// computed line total.
type BillLine struct {
	ProductSKU     string `json:"product_sku"`
	Name           string `json:"name"`
	Model          string `json:"model,omitempty"`
	Category       string `json:"category,omitempty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	TotalCents     int64  `json:"total_cents"`
}

// DraftBill is the composer's working state, serialized so a draft can be
// parked server-side and resumed on another terminal.
type DraftBill struct {
	ID                     string     `json:"id"`
	Items                  []LineItem `json:"items"`
	CustomerID             string     `json:"customer_id,omitempty"`
	SellerID               string     `json:"seller_id,omitempty"`
	AmountPaidCents        int64      `json:"amount_paid_cents"`
	PreviousRemainingCents int64      `json:"previous_remaining_cents"`
	DiscountType           string     `json:"discount_type"`
	FullyPaid              bool       `json:"fully_paid"`
	CashierUsername        string     `json:"cashier_username,omitempty"`
	Note                   string     `json:"note,omitempty"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// BillTotals is the derived monetary view of a draft, recomputed on every
// read rather than cached in mutable fields.
type BillTotals struct {
	SubtotalCents   int64 `json:"subtotal_cents"`
	DiscountCents   int64 `json:"discount_cents"`
	TotalCents      int64 `json:"total_cents"`
	AmountPaidCents int64 `json:"amount_paid_cents"`
	RemainingCents  int64 `json:"remaining_cents"`
}

// BillCreateRequest is the submission snapshot produced by the composer.
type BillCreateRequest struct {
	Items                  []BillLine `json:"items"`
	CustomerID             string     `json:"customer_id,omitempty"`
	SellerID               string     `json:"seller_id"`
	SubtotalCents          int64      `json:"subtotal_cents"`
	DiscountCents          int64      `json:"discount_cents"`
	DiscountType           string     `json:"discount_type"`
	TotalCents             int64      `json:"total_cents"`
	AmountPaidCents        int64      `json:"amount_paid_cents"`
	PreviousRemainingCents int64      `json:"previous_remaining_cents"`
	RemainingCents         int64      `json:"remaining_cents"`
	PaymentMethod          string     `json:"payment_method"`
}

// Bill is the server-confirmed record. Identity fields are immutable after
// creation; amount_paid_cents and remaining_cents change only through payment
// application and always satisfy amount_paid + remaining == total.
type Bill struct {
	ID                     string     `json:"id"`
	BillNumber             string     `json:"bill_number"`
	Items                  []BillLine `json:"items"`
	CustomerID             string     `json:"customer_id,omitempty"`
	CustomerName           string     `json:"customer_name,omitempty"`
	SellerID               string     `json:"seller_id"`
	SellerName             string     `json:"seller_name,omitempty"`
	SubtotalCents          int64      `json:"subtotal_cents"`
	DiscountCents          int64      `json:"discount_cents"`
	DiscountType           string     `json:"discount_type"`
	TotalCents             int64      `json:"total_cents"`
	AmountPaidCents        int64      `json:"amount_paid_cents"`
	RemainingCents         int64      `json:"remaining_cents"`
	PreviousRemainingCents int64      `json:"previous_remaining_cents"`
	PaymentMethod          string     `json:"payment_method"`
	Status                 string     `json:"status"`
	CancelReason           string     `json:"cancel_reason,omitempty"`
	CancelledAt            *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
}

type BillResponse struct {
	Bill Bill `json:"bill"`
}

type BillFilter struct {
	Status     string
	CustomerID string
	SellerID   string
	From       time.Time
	To         time.Time
	Limit      int
}

type BillListResponse struct {
	Bills []Bill `json:"bills"`
}

// PaymentRequest is one incremental payment application against a bill.
type PaymentRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Note        string `json:"note,omitempty"`
}

type BillPayment struct {
	ID          string    `json:"id"`
	BillID      string    `json:"bill_id"`
	AmountCents int64     `json:"amount_cents"`
	Note        string    `json:"note,omitempty"`
	RecordedBy  string    `json:"recorded_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// PaymentPreview is the pre-confirmation estimate shown before the backend
// acknowledges a payment. Never persisted and never authoritative.
type PaymentPreview struct {
	RemainingBeforeCents int64 `json:"remaining_before_cents"`
	RemainingAfterCents  int64 `json:"remaining_after_cents"`
}

type CancelBillRequest struct {
	Reason     string `json:"reason"`
	ManagerPIN string `json:"manager_pin"`
}

type CancelBillResponse struct {
	BillID      string `json:"bill_id"`
	Status      string `json:"status"`
	CancelledAt string `json:"cancelled_at"`
}

type DraftOpenRequest struct {
	CustomerID string `json:"customer_id,omitempty"`
	SellerID   string `json:"seller_id,omitempty"`
	Note       string `json:"note,omitempty"`
}

type DraftAddItemRequest struct {
	ProductSKU     string `json:"product_sku"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents *int64 `json:"unit_price_cents,omitempty"`
}

type DraftUpdateItemRequest struct {
	Quantity       *int   `json:"quantity,omitempty"`
	UnitPriceCents *int64 `json:"unit_price_cents,omitempty"`
}

type DraftPaymentRequest struct {
	AmountPaidCents        *int64  `json:"amount_paid_cents,omitempty"`
	FullyPaid              *bool   `json:"fully_paid,omitempty"`
	PreviousRemainingCents *int64  `json:"previous_remaining_cents,omitempty"`
	CustomerID             *string `json:"customer_id,omitempty"`
	SellerID               *string `json:"seller_id,omitempty"`
}

type DraftResponse struct {
	Draft  DraftBill  `json:"draft"`
	Totals BillTotals `json:"totals"`
}

type DraftListResponse struct {
	Drafts []DraftBill `json:"drafts"`
}

type BillingStats struct {
	From             string           `json:"from"`
	To               string           `json:"to"`
	Bills            int64            `json:"bills"`
	GrossCents       int64            `json:"gross_cents"`
	CollectedCents   int64            `json:"collected_cents"`
	OutstandingCents int64            `json:"outstanding_cents"`
	ByStatus         map[string]int64 `json:"by_status"`
}

// CustomerOutstanding is a customer's balance history: bills still carrying a
// remaining amount, plus the sum owed.
type CustomerOutstanding struct {
	CustomerID       string `json:"customer_id"`
	CustomerName     string `json:"customer_name"`
	OutstandingCents int64  `json:"outstanding_cents"`
	OpenBills        []Bill `json:"open_bills"`
}

type ReceiptResponse struct {
	BillID       string `json:"bill_id"`
	BillNumber   string `json:"bill_number"`
	EscposBase64 string `json:"escpos_base64"`
	PreviewText  string `json:"preview_text"`
	FileName     string `json:"file_name"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

const (
	BillStatusCompleted = "completed"
	BillStatusPending   = "pending"
	BillStatusCancelled = "cancelled"
)

const DefaultPaymentMethod = "cash"

const DiscountTypeAmount = "amount"
