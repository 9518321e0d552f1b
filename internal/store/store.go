package store

import (
	"context"
	"errors"
	"time"

	"tagihin/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidBill       = errors.New("invalid bill")
)

type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	GetProductsBySKUs(ctx context.Context, skus []string) (map[string]domain.Product, error)
	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	GetCustomerByID(ctx context.Context, customerID string) (*domain.Customer, error)
	CreateSeller(ctx context.Context, seller domain.Seller) (*domain.Seller, error)
	ListSellers(ctx context.Context) ([]domain.Seller, error)
	GetSellerByID(ctx context.Context, sellerID string) (*domain.Seller, error)
	SaveDraft(ctx context.Context, draft domain.DraftBill) (*domain.DraftBill, error)
	GetDraft(ctx context.Context, draftID string) (*domain.DraftBill, error)
	ListDrafts(ctx context.Context, cashierUsername string, limit int) ([]domain.DraftBill, error)
	DeleteDraft(ctx context.Context, draftID string) error
	CreateBill(ctx context.Context, bill domain.Bill) (*domain.Bill, error)
	GetBillByID(ctx context.Context, billID string) (*domain.Bill, error)
	ListBills(ctx context.Context, filter domain.BillFilter) ([]domain.Bill, error)
	ApplyBillPayment(ctx context.Context, billID string, payment domain.BillPayment) (*domain.Bill, error)
	ListBillPayments(ctx context.Context, billID string) ([]domain.BillPayment, error)
	CancelBill(ctx context.Context, billID string, reason string, at time.Time) (*domain.Bill, error)
	GetBillingStats(ctx context.Context, from time.Time, to time.Time) (domain.BillingStats, error)
	GetCustomerOutstanding(ctx context.Context, customerID string) (domain.CustomerOutstanding, error)
	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
