/*
Package inventory tracks stock items and their movements.

PURPOSE:
  School inventory: stationery, furniture, electronics. Items carry a
  quantity and a reorder level; IN/OUT movements adjust the quantity in
  the same store transaction that records the movement.

SEE ALSO:
  - store/sqlite/sqlite.go: Store implementation
  - api/handlers.go: Inventory endpoints
*/
package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TYPES
// =============================================================================

type Category string

const (
	CategoryStationery  Category = "STATIONERY"
	CategoryFurniture   Category = "FURNITURE"
	CategoryElectronics Category = "ELECTRONICS"
	CategoryOther       Category = "OTHER"
)

type MovementType string

const (
	MovementIn  MovementType = "IN"
	MovementOut MovementType = "OUT"
)

// Item is a stock item. Quantity is maintained by ApplyMovement, never
// written directly by handlers.
type Item struct {
	ID           string
	Name         string
	Category     Category
	Quantity     int
	ReorderLevel int
	UnitPrice    decimal.Decimal
}

// Movement is one stock adjustment.
type Movement struct {
	ID       string
	ItemID   string
	Type     MovementType
	Quantity int
	MovedAt  time.Time
	Remarks  string
}

var (
	// ErrItemNotFound is returned when a referenced item doesn't exist.
	ErrItemNotFound = errors.New("inventory item not found")

	// ErrInvalidQuantity is returned for non-positive movement quantities.
	ErrInvalidQuantity = errors.New("movement quantity must be positive")
)

// =============================================================================
// STORE
// =============================================================================

// Store persists items and movements.
type Store interface {
	// SaveItem inserts or updates an item (quantity excluded on update;
	// use ApplyMovement to change stock).
	SaveItem(ctx context.Context, item Item) error

	// GetItem returns an item, or nil when absent.
	GetItem(ctx context.Context, id string) (*Item, error)

	// ListItems returns all items ordered by name.
	ListItems(ctx context.Context) ([]Item, error)

	// ApplyMovement records a movement and adjusts the item quantity in
	// one store transaction. Returns the updated item.
	ApplyMovement(ctx context.Context, m Movement) (*Item, error)

	// ListLowStock returns items at or below their reorder level.
	ListLowStock(ctx context.Context) ([]Item, error)
}

// Delta returns the signed quantity change a movement applies.
func (m Movement) Delta() int {
	if m.Type == MovementOut {
		return -m.Quantity
	}
	return m.Quantity
}
