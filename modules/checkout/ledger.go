package checkout

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Attempt statuses.
const (
	AttemptSucceeded = "succeeded"
	AttemptFailed    = "failed"
)

// Attempt is one purchase submission, keyed by its idempotency key.
type Attempt struct {
	IdempotencyKey string `gorm:"primarykey;size:64"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	SessionID      string `gorm:"size:36;index"`
	CustomerEmail  string `gorm:"size:100;index"`
	Total          int64  `gorm:"not null"`
	Units          int    `gorm:"not null"`
	Status         string `gorm:"size:16;not null"`
	OrderID        string `gorm:"size:64"`
	Message        string `gorm:"size:300"`
	Attempts       int    `gorm:"not null;default:0"`
}

// OwnedBy reports whether the attempt was made by the customer behind email.
func (a *Attempt) OwnedBy(email string) bool {
	return strings.EqualFold(a.CustomerEmail, email)
}

// Covers reports whether the attempt was made by email for a cart of the
// same total and units.
func (a *Attempt) Covers(email string, total int64, units int) bool {
	return a.OwnedBy(email) && a.Total == total && a.Units == units
}

// TableName specifies the table name for GORM.
func (Attempt) TableName() string {
	return "checkout_attempts"
}

// Ledger records purchase attempts so a retried key can replay an earlier success.
type Ledger struct {
	db *gorm.DB
}

// NewLedger creates a ledger over db.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Migrate creates the attempts table.
func (l *Ledger) Migrate() error {
	if err := l.db.AutoMigrate(&Attempt{}); err != nil {
		return fmt.Errorf("failed to migrate checkout ledger: %w", err)
	}
	return nil
}

// Lookup returns the attempt recorded for key in any status, or nil.
func (l *Ledger) Lookup(key string) (*Attempt, error) {
	var a Attempt
	err := l.db.Where("idempotency_key = ?", key).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up attempt: %w", err)
	}
	return &a, nil
}

// Succeeded returns the successful attempt recorded for key, or nil.
func (l *Ledger) Succeeded(key string) (*Attempt, error) {
	var a Attempt
	err := l.db.Where("idempotency_key = ? AND status = ?", key, AttemptSucceeded).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up attempt: %w", err)
	}
	return &a, nil
}

// Record stores an attempt, counting retries of the same key.
func (l *Ledger) Record(a *Attempt) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		var prev Attempt
		err := tx.First(&prev, "idempotency_key = ?", a.IdempotencyKey).Error
		switch {
		case err == nil:
			a.CreatedAt = prev.CreatedAt
			a.Attempts = prev.Attempts + 1
		case errors.Is(err, gorm.ErrRecordNotFound):
			a.Attempts = 1
		default:
			return fmt.Errorf("failed to read attempt: %w", err)
		}

		if err := tx.Save(a).Error; err != nil {
			return fmt.Errorf("failed to record attempt: %w", err)
		}
		return nil
	})
}
