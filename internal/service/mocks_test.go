package service

import (
	"context"
	"strings"
	"sync"

	"github.com/Zohair23/price-comparison-engine/internal/model"
	"github.com/Zohair23/price-comparison-engine/internal/store"
)

// mockStore implements store.Store in memory for service tests
type mockStore struct {
	mu       sync.Mutex
	products []model.Product
	records  []model.PriceRecord
	alerts   []model.Alert
	recs     []model.Recommendation
	nextID   uint
}

func newMockStore() *mockStore {
	return &mockStore{nextID: 1}
}

func (m *mockStore) addProduct(p model.Product) model.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == 0 {
		p.ID = m.nextID
		m.nextID++
	} else if p.ID >= m.nextID {
		m.nextID = p.ID + 1
	}
	m.products = append(m.products, p)
	return p
}

func (m *mockStore) CreateProduct(_ context.Context, p *model.Product) error {
	*p = m.addProduct(*p)
	return nil
}

func (m *mockStore) GetProduct(_ context.Context, id uint) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) ListProducts(context.Context) ([]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Product(nil), m.products...), nil
}

func (m *mockStore) CountProducts(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.products)), nil
}

func (m *mockStore) SearchProducts(_ context.Context, query, category string) ([]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Product
	for _, p := range m.products {
		if query != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
			continue
		}
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *mockStore) AppendPriceRecord(_ context.Context, r *model.PriceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.nextID
	m.nextID++
	r.DiscountPercent = model.ComputeDiscountPercent(r.Price, r.OriginalPrice)
	m.records = append(m.records, *r)
	return nil
}

func (m *mockStore) PricesForProduct(_ context.Context, productID uint) ([]model.PriceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.PriceRecord
	for _, r := range m.records {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStore) PriceHistory(ctx context.Context, productID uint, _ int) ([]model.PriceRecord, error) {
	return m.PricesForProduct(ctx, productID)
}

func (m *mockStore) CreateAlert(_ context.Context, a *model.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.nextID
	m.nextID++
	m.alerts = append(m.alerts, *a)
	return nil
}

func (m *mockStore) ActiveAlerts(context.Context) ([]model.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Alert
	for _, a := range m.alerts {
		if a.IsActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockStore) SaveAlert(_ context.Context, a *model.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.alerts {
		if m.alerts[i].ID == a.ID {
			m.alerts[i] = *a
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *mockStore) DeactivateAlert(_ context.Context, id uint) (*model.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.alerts {
		if m.alerts[i].ID == id {
			m.alerts[i].IsActive = false
			a := m.alerts[i]
			return &a, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) ReplaceRecommendations(_ context.Context, productID uint, recs []model.Recommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []model.Recommendation
	for _, r := range m.recs {
		if r.ProductID != productID {
			kept = append(kept, r)
		}
	}
	for i := range recs {
		if recs[i].ID == 0 {
			recs[i].ID = m.nextID
			m.nextID++
		}
	}
	m.recs = append(kept, recs...)
	return nil
}

func (m *mockStore) RecommendationsForProduct(_ context.Context, productID uint) ([]model.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Recommendation
	for _, r := range m.recs {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, nil
}
