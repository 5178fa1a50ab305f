package pharmacy

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrInsufficientStock is returned by RegisterSale when the requested
// quantity exceeds the stock on hand. Nothing is mutated in that case.
var ErrInsufficientStock = errors.New("insufficient stock")

type Repository interface {
	CreateItem(ctx context.Context, i *Item) error
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)
	ListItems(ctx context.Context, q string, lowStock bool, limit, offset int) ([]*Item, int, error)
	UpdateItem(ctx context.Context, i *Item) error
	SoftDeleteItem(ctx context.Context, id uuid.UUID) error

	// RegisterSale atomically checks stock, decrements it, and records
	// the sale with the item's current price. Fails with
	// ErrInsufficientStock without mutating anything when stock is short.
	RegisterSale(ctx context.Context, s *Sale) error
	ListSales(ctx context.Context, limit, offset int) ([]*Sale, int, error)
}
