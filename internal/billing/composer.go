// Package billing holds the pure billing math: draft-bill composition and
// payment-ledger reconciliation. Nothing here touches storage or transport;
// derived amounts are recomputed on every read instead of being cached in
// mutable fields.
package billing

import (
	"errors"
	"strings"
	"time"

	"tagihin/backend/internal/domain"
)

var (
	ErrUnknownProduct  = errors.New("product not resolvable")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidPrice    = errors.New("unit price must not be negative")
	ErrEmptyBill       = errors.New("empty bill")
	ErrMissingSeller   = errors.New("missing seller")
)

// PaidMode is the amount-paid pin state. In PaidModePinned the paid amount
// tracks the bill total across any mutation until the pin is released.
type PaidMode int

const (
	PaidModeFree PaidMode = iota
	PaidModePinned
)

// Composer accumulates line items for a not-yet-persisted bill and produces
// the submission snapshot once a seller is assigned and at least one item
// exists. Ordered items: insertion order is display order.
type Composer struct {
	items                  []domain.LineItem
	customerID             string
	sellerID               string
	amountPaidCents        int64
	previousRemainingCents int64
	discountType           string
	paidMode               PaidMode
}

func NewComposer() *Composer {
	return &Composer{
		items:        make([]domain.LineItem, 0, 8),
		discountType: domain.DiscountTypeAmount,
	}
}

// Load rebuilds a composer from a parked draft.
func Load(draft domain.DraftBill) *Composer {
	c := NewComposer()
	c.items = append(c.items, draft.Items...)
	c.customerID = draft.CustomerID
	c.sellerID = draft.SellerID
	c.amountPaidCents = draft.AmountPaidCents
	c.previousRemainingCents = draft.PreviousRemainingCents
	if draft.DiscountType != "" {
		c.discountType = draft.DiscountType
	}
	if draft.FullyPaid {
		c.paidMode = PaidModePinned
	}
	return c
}

// Snapshot serializes the composer state into a draft for parking. ID, note
// and cashier attribution are the caller's concern.
func (c *Composer) Snapshot() domain.DraftBill {
	items := make([]domain.LineItem, len(c.items))
	copy(items, c.items)
	return domain.DraftBill{
		Items:                  items,
		CustomerID:             c.customerID,
		SellerID:               c.sellerID,
		AmountPaidCents:        c.amountPaidCents,
		PreviousRemainingCents: c.previousRemainingCents,
		DiscountType:           c.discountType,
		FullyPaid:              c.paidMode == PaidModePinned,
	}
}

// AddItem appends a line or, when the product is already present, merges into
// the existing line: quantity is additive, unit price is last-write-wins.
// Stock is snapshotted for presentation only and never enforced here.
func (c *Composer) AddItem(product domain.Product, quantity int, unitPriceCents int64) error {
	if strings.TrimSpace(product.SKU) == "" {
		return ErrUnknownProduct
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if unitPriceCents < 0 {
		return ErrInvalidPrice
	}

	for i := range c.items {
		if c.items[i].ProductSKU == product.SKU {
			c.items[i].Quantity += quantity
			c.items[i].UnitPriceCents = unitPriceCents
			return nil
		}
	}

	c.items = append(c.items, domain.LineItem{
		ProductSKU:     product.SKU,
		Name:           product.Name,
		Model:          product.Model,
		Category:       product.Category,
		UnitPriceCents: unitPriceCents,
		Quantity:       quantity,
		StockAtAdd:     product.Stock,
	})
	return nil
}

// UpdateQuantity replaces a line's quantity in place. A non-positive quantity
// removes the line. No upper stock clamp: the stock bound is advisory.
func (c *Composer) UpdateQuantity(productSKU string, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(productSKU)
		return
	}
	for i := range c.items {
		if c.items[i].ProductSKU == productSKU {
			c.items[i].Quantity = quantity
			return
		}
	}
}

// UpdateUnitPrice replaces a line's unit price. Negative input is coerced to
// zero rather than rejected.
func (c *Composer) UpdateUnitPrice(productSKU string, unitPriceCents int64) {
	if unitPriceCents < 0 {
		unitPriceCents = 0
	}
	for i := range c.items {
		if c.items[i].ProductSKU == productSKU {
			c.items[i].UnitPriceCents = unitPriceCents
			return
		}
	}
}

// RemoveItem deletes a line; no-op when absent.
func (c *Composer) RemoveItem(productSKU string) {
	for i := range c.items {
		if c.items[i].ProductSKU == productSKU {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

func (c *Composer) Items() []domain.LineItem {
	items := make([]domain.LineItem, len(c.items))
	copy(items, c.items)
	return items
}

func (c *Composer) SetCustomer(customerID string) {
	c.customerID = strings.TrimSpace(customerID)
}

func (c *Composer) SetSeller(sellerID string) {
	c.sellerID = strings.TrimSpace(sellerID)
}

func (c *Composer) SetPreviousRemaining(cents int64) {
	if cents < 0 {
		cents = 0
	}
	c.previousRemainingCents = cents
}

// SetAmountPaid records the freely edited paid amount, clamped to
// [0, total]. While the pin is active the stored value is retained but
// Totals reports the pinned total instead.
func (c *Composer) SetAmountPaid(cents int64) {
	if cents < 0 {
		cents = 0
	}
	if total := c.totalCents(); cents > total {
		cents = total
	}
	c.amountPaidCents = cents
}

// SetFullyPaid switches the pin state. Pinning forces amountPaid == total on
// every recompute; releasing restores the last explicitly set value.
func (c *Composer) SetFullyPaid(pinned bool) {
	if pinned {
		c.paidMode = PaidModePinned
		return
	}
	c.paidMode = PaidModeFree
}

func (c *Composer) PaidMode() PaidMode {
	return c.paidMode
}

func (c *Composer) subtotalCents() int64 {
	subtotal := int64(0)
	for _, item := range c.items {
		subtotal += item.UnitPriceCents * int64(item.Quantity)
	}
	return subtotal
}

func (c *Composer) totalCents() int64 {
	// Discount is carried through the payload but fixed at zero; it never
	// reduces the total.
	total := c.subtotalCents()
	if total < 0 {
		total = 0
	}
	return total
}

// Totals derives the monetary view of the draft. Idempotent: calling it any
// number of times against unchanged state yields the same result.
func (c *Composer) Totals() domain.BillTotals {
	total := c.totalCents()

	paid := c.amountPaidCents
	if c.paidMode == PaidModePinned {
		paid = total
	}
	if paid > total {
		paid = total
	}

	remaining := total - paid
	if remaining < 0 {
		remaining = 0
	}

	return domain.BillTotals{
		SubtotalCents:   c.subtotalCents(),
		DiscountCents:   0,
		TotalCents:      total,
		AmountPaidCents: paid,
		RemainingCents:  remaining,
	}
}

// BuildSubmission produces the bill-creation request: a frozen snapshot of
// the lines with computed line totals plus the derived amounts. Fails with
// ErrEmptyBill or ErrMissingSeller without touching composer state.
func (c *Composer) BuildSubmission() (domain.BillCreateRequest, error) {
	if len(c.items) == 0 {
		return domain.BillCreateRequest{}, ErrEmptyBill
	}
	if strings.TrimSpace(c.sellerID) == "" {
		return domain.BillCreateRequest{}, ErrMissingSeller
	}

	totals := c.Totals()
	lines := make([]domain.BillLine, 0, len(c.items))
	for _, item := range c.items {
		lines = append(lines, domain.BillLine{
			ProductSKU:     item.ProductSKU,
			Name:           item.Name,
			Model:          item.Model,
			Category:       item.Category,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
			TotalCents:     item.UnitPriceCents * int64(item.Quantity),
		})
	}

	return domain.BillCreateRequest{
		Items:                  lines,
		CustomerID:             c.customerID,
		SellerID:               c.sellerID,
		SubtotalCents:          totals.SubtotalCents,
		DiscountCents:          0,
		DiscountType:           c.discountType,
		TotalCents:             totals.TotalCents,
		AmountPaidCents:        totals.AmountPaidCents,
		PreviousRemainingCents: c.previousRemainingCents,
		RemainingCents:         totals.RemainingCents,
		PaymentMethod:          domain.DefaultPaymentMethod,
	}, nil
}

// Clear resets the composer to an empty draft, as after a successful
// submission or an explicit user reset.
func (c *Composer) Clear() {
	c.items = c.items[:0]
	c.customerID = ""
	c.sellerID = ""
	c.amountPaidCents = 0
	c.previousRemainingCents = 0
	c.paidMode = PaidModeFree
}

// TouchedSnapshot is Snapshot with the update timestamp stamped, for saving
// parked drafts.
func (c *Composer) TouchedSnapshot(now time.Time) domain.DraftBill {
	draft := c.Snapshot()
	draft.UpdatedAt = now
	return draft
}
