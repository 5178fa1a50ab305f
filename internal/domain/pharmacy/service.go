package pharmacy

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medcore/medcore/internal/platform/apperror"
	"github.com/medcore/medcore/internal/platform/db"
	"github.com/medcore/medcore/internal/platform/ensure"
)

type auditor interface {
	RecordAsync(action, entityType, entityID string, actorID uuid.UUID, actorRole string, details map[string]interface{})
}

type Service struct {
	repo     Repository
	patients ensure.Checker
	audit    auditor
}

func NewService(repo Repository, patients ensure.Checker, a auditor) *Service {
	return &Service{repo: repo, patients: patients, audit: a}
}

type ItemInput struct {
	Name           string     `json:"name"`
	SKU            string     `json:"sku"`
	StockQty       int        `json:"stock_qty"`
	UnitPriceCents int64      `json:"unit_price_cents"`
	ReorderLevel   int        `json:"reorder_level"`
	ExpiresAt      *time.Time `json:"expires_at"`
}

func (in *ItemInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperror.Validation("name is required")
	}
	if strings.TrimSpace(in.SKU) == "" {
		return apperror.Validation("sku is required")
	}
	if in.StockQty < 0 {
		return apperror.Validation("stock_qty cannot be negative")
	}
	if in.UnitPriceCents < 0 {
		return apperror.Validation("unit price cannot be negative")
	}
	if in.ReorderLevel < 0 {
		return apperror.Validation("reorder_level cannot be negative")
	}
	return nil
}

func (s *Service) CreateItem(ctx context.Context, in ItemInput, actorID uuid.UUID, actorRole string) (*Item, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	i := &Item{
		Name:           strings.TrimSpace(in.Name),
		SKU:            strings.TrimSpace(in.SKU),
		StockQty:       in.StockQty,
		UnitPriceCents: in.UnitPriceCents,
		ReorderLevel:   in.ReorderLevel,
		ExpiresAt:      in.ExpiresAt,
	}
	if err := s.repo.CreateItem(ctx, i); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apperror.Conflict("sku already exists")
		}
		return nil, apperror.Internal(err)
	}
	s.audit.RecordAsync("pharmacy.item.create", "pharmacy_item", i.ID.String(), actorID, actorRole, nil)
	return i, nil
}

func (s *Service) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	i, err := s.repo.GetItem(ctx, id)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, apperror.NotFound("pharmacy item")
		}
		return nil, apperror.Internal(err)
	}
	return i, nil
}

func (s *Service) ListItems(ctx context.Context, q string, lowStock bool, limit, offset int) ([]*Item, int, error) {
	items, total, err := s.repo.ListItems(ctx, q, lowStock, limit, offset)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return items, total, nil
}

func (s *Service) UpdateItem(ctx context.Context, id uuid.UUID, in ItemInput, actorID uuid.UUID, actorRole string) (*Item, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	i, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	i.Name = strings.TrimSpace(in.Name)
	i.SKU = strings.TrimSpace(in.SKU)
	i.StockQty = in.StockQty
	i.UnitPriceCents = in.UnitPriceCents
	i.ReorderLevel = in.ReorderLevel
	i.ExpiresAt = in.ExpiresAt

	if err := s.repo.UpdateItem(ctx, i); err != nil {
		if db.IsNoRows(err) {
			return nil, apperror.NotFound("pharmacy item")
		}
		if db.IsUniqueViolation(err) {
			return nil, apperror.Conflict("sku already exists")
		}
		return nil, apperror.Internal(err)
	}
	s.audit.RecordAsync("pharmacy.item.update", "pharmacy_item", id.String(), actorID, actorRole, nil)
	return i, nil
}

func (s *Service) DeleteItem(ctx context.Context, id uuid.UUID, actorID uuid.UUID, actorRole string) error {
	if err := s.repo.SoftDeleteItem(ctx, id); err != nil {
		if db.IsNoRows(err) {
			return apperror.NotFound("pharmacy item")
		}
		return apperror.Internal(err)
	}
	s.audit.RecordAsync("pharmacy.item.delete", "pharmacy_item", id.String(), actorID, actorRole, nil)
	return nil
}

type SaleInput struct {
	ItemID    uuid.UUID  `json:"item_id"`
	Quantity  int        `json:"quantity"`
	PatientID *uuid.UUID `json:"patient_id"`
}

// RegisterSale records a sale, decrementing stock atomically. Selling
// more than the stock on hand is a conflict and leaves stock unchanged.
func (s *Service) RegisterSale(ctx context.Context, in SaleInput, actorID uuid.UUID, actorRole string) (*Sale, error) {
	if in.Quantity <= 0 {
		return nil, apperror.Validation("quantity must be positive")
	}
	if in.PatientID != nil {
		if err := ensure.Exists(ctx, s.patients, *in.PatientID, "patient"); err != nil {
			return nil, err
		}
	}

	sale := &Sale{
		ItemID:    in.ItemID,
		Quantity:  in.Quantity,
		PatientID: in.PatientID,
	}
	if actorID != uuid.Nil {
		sale.SoldBy = &actorID
	}

	if err := s.repo.RegisterSale(ctx, sale); err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			return nil, apperror.Conflict("insufficient stock")
		}
		if db.IsNoRows(err) {
			return nil, apperror.NotFound("pharmacy item")
		}
		return nil, apperror.Internal(err)
	}

	s.audit.RecordAsync("pharmacy.sale", "pharmacy_sale", sale.ID.String(), actorID, actorRole, map[string]interface{}{
		"item_id":  sale.ItemID.String(),
		"quantity": sale.Quantity,
	})
	return sale, nil
}

func (s *Service) ListSales(ctx context.Context, limit, offset int) ([]*Sale, int, error) {
	items, total, err := s.repo.ListSales(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return items, total, nil
}
