package storage

import (
	"context"
	"log"
	"strings"

	"paper_trading/internal/models"

	"github.com/shopspring/decimal"
)

// SchemaVersion is the version written with every record.
const SchemaVersion = "1.2"

// Store persists the single user record.
//
// Implementations are last-writer-wins: there is no version check between
// a read and a later write from another process.
type Store interface {
	// GetUser returns the stored record, or a zero-value user if nothing is stored yet.
	GetUser(ctx context.Context) (models.User, error)
	// SaveUser replaces the stored record.
	SaveUser(ctx context.Context, u models.User) error
	// UpdateUser reads the record, shallow-merges the update and writes it back.
	UpdateUser(ctx context.Context, up models.UserUpdate) error
}

// DefaultUser is the record of a brand new account.
func DefaultUser() models.User {
	return models.User{
		Version:   SchemaVersion,
		Balance:   decimal.Zero,
		Portfolio: []models.Position{},
	}
}

// Migrate handles schema evolution.
// Returns true if changes were made and the record needs to be saved.
func Migrate(u *models.User) bool {
	updated := false

	if u.Version == "" {
		u.Version = "1.0"
	}
	if u.Portfolio == nil {
		u.Portfolio = []models.Position{}
	}

	// 1.0 -> 1.1: records written before the average purchase price existed.
	if u.Version < "1.1" {
		log.Println("INFO: Migrating user record from 1.0 to 1.1")
		for i := range u.Portfolio {
			if u.Portfolio[i].PurchasePrice.IsZero() {
				u.Portfolio[i].PurchasePrice = u.Portfolio[i].Price
			}
		}
		u.Version = "1.1"
		updated = true
	}

	// 1.1 -> 1.2: tickers are upper-case and empty rows are removed.
	if u.Version < "1.2" {
		log.Println("INFO: Migrating user record from 1.1 to 1.2")
		kept := u.Portfolio[:0]
		for _, p := range u.Portfolio {
			if p.Quantity <= 0 {
				log.Printf("INFO: Dropping empty position %s", p.Ticker)
				continue
			}
			p.Ticker = strings.ToUpper(strings.TrimSpace(p.Ticker))
			kept = append(kept, p)
		}
		u.Portfolio = kept
		u.Version = "1.2"
		updated = true
	}

	return updated
}
