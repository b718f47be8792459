// Package store persists scan history.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/vest-cli/internal/model"
)

// ErrNotFound is returned when a scan id does not exist.
var ErrNotFound = eris.New("store: scan not found")

// DefaultListLimit bounds ListScans when the filter sets no limit.
const DefaultListLimit = 100

// ScanRecord is one saved scan. The headline columns are denormalized for
// listing and export; Payload holds the full result as JSON.
type ScanRecord struct {
	ID             string               `json:"id"`
	ParentID       string               `json:"parent_id,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	ItemName       string               `json:"item_name"`
	Category       string               `json:"category,omitempty"`
	Query          string               `json:"query"`
	Tier           int                  `json:"tier"`
	BuyPrice       float64              `json:"buy_price"`
	ListPrice      float64              `json:"list_price"`
	Score          float64              `json:"score"`
	Grade          model.Grade          `json:"grade"`
	Recommendation model.Recommendation `json:"recommendation"`
	NetProfit      float64              `json:"net_profit"`
	ROI            model.Ratio          `json:"roi"`
	Payload        json.RawMessage      `json:"payload,omitempty"`
}

// ScanFilter narrows ListScans.
type ScanFilter struct {
	Grade    model.Grade `json:"grade,omitempty"`
	MinScore float64     `json:"min_score,omitempty"`
	// Query matches a substring of the item name or search query.
	Query  string `json:"query,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

func (f ScanFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// Store defines scan history persistence.
type Store interface {
	SaveScan(ctx context.Context, rec ScanRecord) error
	GetScan(ctx context.Context, id string) (*ScanRecord, error)
	// ListScans returns records newest first.
	ListScans(ctx context.Context, filter ScanFilter) ([]ScanRecord, error)
	DeleteScan(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

func validate(rec ScanRecord) error {
	if rec.ID == "" {
		return eris.New("store: scan record needs an id")
	}
	if rec.CreatedAt.IsZero() {
		return eris.Errorf("store: scan %s has no created_at", rec.ID)
	}
	return nil
}

// payloadOrNull keeps an empty payload valid JSON.
func payloadOrNull(p json.RawMessage) []byte {
	if len(p) == 0 {
		return []byte("null")
	}
	return p
}
