// Package models defines the CRM entities persisted through GORM.
package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/dkenzhebek/tgcrm-bot/internal/core/status"
)

// Manager is a sales manager identified by their Telegram account.
type Manager struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	TelegramID int64  `gorm:"uniqueIndex;not null" json:"telegram_id"`
	Name       string `gorm:"size:255" json:"name"`
	Role       string `gorm:"size:50;not null;default:manager" json:"role"`

	Deals []Deal `json:"-"`
}

// Client is a customer identified by a normalized phone number. The phone
// number is immutable after creation; the suffix column is derived from it
// for fast lookups.
type Client struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	PhoneNumber string `gorm:"size:20;uniqueIndex;not null" json:"phone_number"`
	PhoneSuffix string `gorm:"size:4;index;not null" json:"phone_suffix"`
	Name        string `gorm:"size:255" json:"name"`
	City        string `gorm:"size:255" json:"city"`

	Deals []Deal `json:"-"`
}

// Deal is a tracked sales opportunity between one manager and one client.
// Status moves only along the transition table in core/status.
type Deal struct {
	ID                uint                `gorm:"primaryKey" json:"id"`
	ClientID          uint                `gorm:"index;not null" json:"client_id"`
	ManagerID         uint                `gorm:"index;not null" json:"manager_id"`
	Status            status.Status       `gorm:"size:50;not null" json:"status"`
	Amount            decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"amount"`
	CreatedAt         time.Time           `gorm:"autoCreateTime" json:"created_at"`
	LastInteractionAt *time.Time          `json:"last_interaction_at"`

	Client       Client        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Manager      Manager       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Interactions []Interaction `json:"-"`
	Invoices     []Invoice     `json:"-"`
	Reminders    []Reminder    `json:"-"`
}

// Interaction is an append-only log entry attached to a deal.
type Interaction struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	DealID         uint      `gorm:"index;not null" json:"deal_id"`
	Type           string    `gorm:"size:50;not null" json:"type"`
	ManagerSummary string    `gorm:"type:text;not null" json:"manager_summary"`
	AIAdvice       string    `gorm:"type:text" json:"ai_advice"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`

	Deal Deal `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Invoice is a parsed PDF invoice attached to a deal.
type Invoice struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	DealID      uint            `gorm:"index;not null" json:"deal_id"`
	FilePath    string          `gorm:"size:255;not null" json:"file_path"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`

	Deal  Deal          `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Items []InvoiceItem `json:"items"`
}

// InvoiceItem is one numbered row of an invoice; the line number is unique
// per invoice.
type InvoiceItem struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	InvoiceID       uint   `gorm:"not null;uniqueIndex:uq_invoice_line" json:"invoice_id"`
	LineNumber      int    `gorm:"not null;uniqueIndex:uq_invoice_line" json:"line_number"`
	ItemDescription string `gorm:"type:text;not null" json:"item_description"`

	Invoice Invoice `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Reminder schedules a one-shot follow-up notification for a deal. IsSent
// flips once during the notification sweep and is never reset.
type Reminder struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	DealID   uint      `gorm:"index;not null" json:"deal_id"`
	RemindAt time.Time `gorm:"index;not null" json:"remind_at"`
	IsSent   bool      `gorm:"not null;default:false" json:"is_sent"`

	Deal Deal `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// BotSetting is a key-value runtime override for static configuration.
type BotSetting struct {
	Key   string `gorm:"primaryKey;size:100" json:"key"`
	Value string `gorm:"type:text;not null" json:"value"`
}

// ChatSession is the persisted snapshot of a conversation session, written
// best-effort after each handled message so state survives restarts.
type ChatSession struct {
	ChatID       int64             `gorm:"primaryKey" json:"chat_id"`
	State        string            `gorm:"size:50;not null" json:"state"`
	ActiveDealID uint              `json:"active_deal_id"`
	Scratch      datatypes.JSONMap `json:"scratch"`
	History      datatypes.JSON    `json:"history"`
	UpdatedAt    time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}
