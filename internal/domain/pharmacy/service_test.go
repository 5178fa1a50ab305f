package pharmacy

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/medcore/medcore/internal/platform/apperror"
)

type mockRepo struct {
	items map[uuid.UUID]*Item
	sales []*Sale
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Item)}
}

func (m *mockRepo) CreateItem(_ context.Context, i *Item) error {
	for _, existing := range m.items {
		if existing.DeletedAt == nil && existing.SKU == i.SKU {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	i.ID = uuid.New()
	i.CreatedAt = time.Now()
	m.items[i.ID] = i
	return nil
}

func (m *mockRepo) GetItem(_ context.Context, id uuid.UUID) (*Item, error) {
	i, ok := m.items[id]
	if !ok || i.DeletedAt != nil {
		return nil, pgx.ErrNoRows
	}
	copied := *i
	return &copied, nil
}

func (m *mockRepo) ListItems(_ context.Context, q string, lowStock bool, limit, offset int) ([]*Item, int, error) {
	var all []*Item
	for _, i := range m.items {
		if i.DeletedAt != nil {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(i.Name), strings.ToLower(q)) &&
			!strings.Contains(strings.ToLower(i.SKU), strings.ToLower(q)) {
			continue
		}
		if lowStock && !i.LowStock() {
			continue
		}
		all = append(all, i)
	}
	total := len(all)
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockRepo) UpdateItem(_ context.Context, i *Item) error {
	existing, ok := m.items[i.ID]
	if !ok || existing.DeletedAt != nil {
		return pgx.ErrNoRows
	}
	m.items[i.ID] = i
	return nil
}

func (m *mockRepo) SoftDeleteItem(_ context.Context, id uuid.UUID) error {
	i, ok := m.items[id]
	if !ok || i.DeletedAt != nil {
		return pgx.ErrNoRows
	}
	now := time.Now()
	i.DeletedAt = &now
	return nil
}

func (m *mockRepo) RegisterSale(_ context.Context, s *Sale) error {
	i, ok := m.items[s.ItemID]
	if !ok || i.DeletedAt != nil {
		return pgx.ErrNoRows
	}
	if i.StockQty < s.Quantity {
		return ErrInsufficientStock
	}
	i.StockQty -= s.Quantity
	s.ID = uuid.New()
	s.UnitPriceCents = i.UnitPriceCents
	s.TotalCents = int64(s.Quantity) * i.UnitPriceCents
	s.CreatedAt = time.Now()
	m.sales = append(m.sales, s)
	return nil
}

func (m *mockRepo) ListSales(_ context.Context, limit, offset int) ([]*Sale, int, error) {
	total := len(m.sales)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return m.sales[offset:end], total, nil
}

type mockPatientChecker struct {
	known map[uuid.UUID]bool
}

func (m *mockPatientChecker) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.known[id], nil
}

type mockAuditor struct {
	mu      sync.Mutex
	actions []string
}

func (m *mockAuditor) RecordAsync(action, _, _ string, _ uuid.UUID, _ string, _ map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, action)
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	checker := &mockPatientChecker{known: map[uuid.UUID]bool{}}
	return NewService(repo, checker, &mockAuditor{}), repo
}

func (s *Service) mustCreateItem(t *testing.T, stock int) *Item {
	t.Helper()
	i, err := s.CreateItem(context.Background(), ItemInput{
		Name: "Amoxicillin 500mg", SKU: "AMX-500-" + uuid.NewString()[:8],
		StockQty: stock, UnitPriceCents: 1200, ReorderLevel: 10,
	}, uuid.Nil, "pharmacist")
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	return i
}

func TestCreateItemValidation(t *testing.T) {
	svc, _ := newTestService()

	cases := []struct {
		name string
		in   ItemInput
	}{
		{"missing name", ItemInput{SKU: "X"}},
		{"missing sku", ItemInput{Name: "X"}},
		{"negative stock", ItemInput{Name: "X", SKU: "Y", StockQty: -1}},
		{"negative price", ItemInput{Name: "X", SKU: "Y", UnitPriceCents: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateItem(context.Background(), tc.in, uuid.Nil, "pharmacist"); apperror.KindOf(err) != apperror.KindValidation {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRegisterSale(t *testing.T) {
	svc, repo := newTestService()
	item := svc.mustCreateItem(t, 20)
	seller := uuid.New()

	sale, err := svc.RegisterSale(context.Background(), SaleInput{ItemID: item.ID, Quantity: 5}, seller, "pharmacist")
	if err != nil {
		t.Fatalf("RegisterSale failed: %v", err)
	}
	if sale.TotalCents != 5*1200 {
		t.Errorf("expected total 6000, got %d", sale.TotalCents)
	}
	if got := repo.items[item.ID].StockQty; got != 15 {
		t.Errorf("expected stock 15 after sale, got %d", got)
	}
}

func TestRegisterSaleInsufficientStock(t *testing.T) {
	svc, repo := newTestService()
	item := svc.mustCreateItem(t, 3)

	_, err := svc.RegisterSale(context.Background(), SaleInput{ItemID: item.ID, Quantity: 5}, uuid.Nil, "pharmacist")
	if !apperror.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if got := repo.items[item.ID].StockQty; got != 3 {
		t.Errorf("stock mutated on failed sale: %d", got)
	}
	if len(repo.sales) != 0 {
		t.Error("sale recorded despite insufficient stock")
	}
}

func TestRegisterSaleUnknownReferences(t *testing.T) {
	svc, _ := newTestService()
	item := svc.mustCreateItem(t, 10)

	if _, err := svc.RegisterSale(context.Background(), SaleInput{ItemID: uuid.New(), Quantity: 1}, uuid.Nil, "pharmacist"); !apperror.IsNotFound(err) {
		t.Errorf("unknown item: expected not-found, got %v", err)
	}

	unknown := uuid.New()
	if _, err := svc.RegisterSale(context.Background(), SaleInput{ItemID: item.ID, Quantity: 1, PatientID: &unknown}, uuid.Nil, "pharmacist"); !apperror.IsNotFound(err) {
		t.Errorf("unknown patient: expected not-found, got %v", err)
	}
}

func TestLowStockListing(t *testing.T) {
	svc, _ := newTestService()

	low := svc.mustCreateItem(t, 5)   // reorder level 10
	_ = svc.mustCreateItem(t, 100)

	items, total, err := svc.ListItems(context.Background(), "", true, 10, 0)
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].ID != low.ID {
		t.Errorf("expected only the low-stock item, got %d results", total)
	}
}
