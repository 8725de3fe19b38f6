package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionPurchasePart TransactionType = "purchase_part"
	TransactionAssembly     TransactionType = "assembly"
)

// Transaction is an entry of the activity feed.
type Transaction struct {
	ID      uuid.UUID
	Type    TransactionType
	Date    time.Time
	Details map[string]any
	Cost    decimal.Decimal
}

const (
	DefaultTransactionsLimit = 100
	MaxTransactionsLimit     = 1000
)

type ItemDetails struct {
	Item       *FinishedProduct
	Production []*Record
	Sales      []*Record
}

type DashboardStats struct {
	TotalParts         int
	TotalProducts      int
	LowStockCount      int
	RecentTransactions []*Transaction
}

type ReportEmailRequest struct {
	RequestID   uuid.UUID
	Email       string
	RequestedAt time.Time
}

const ExcelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Workbook is a rendered stock report.
type Workbook struct {
	Filename    string
	Content     []byte
	GeneratedAt time.Time
}

type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

type Mail struct {
	To          []string
	Subject     string
	Body        string
	Attachments []Attachment
}
