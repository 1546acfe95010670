package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oopsinfosolutions/feed-sub001/internal/model"
	"github.com/oopsinfosolutions/feed-sub001/internal/repository"
	"github.com/oopsinfosolutions/feed-sub001/pkg/events"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	mu       sync.Mutex
	users    map[string]*model.User // by user_id
	nextID   uint
	failWith error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.users[user.UserID]; ok {
		return gorm.ErrDuplicatedKey
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByUserID(_ context.Context, userID string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ExistsByUserID(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.users[userID]
	return ok, nil
}

func (m *mockUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) ListByType(_ context.Context, userType string) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.User
	for _, u := range m.users {
		if userType == "" || u.Type == userType {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// ── Mock ShipmentRepository ──

type mockShipmentRepo struct {
	mu        sync.Mutex
	shipments map[string]*model.Shipment
	order     []string
	updates   []map[string]interface{}
	failWith  error
}

func newMockShipmentRepo() *mockShipmentRepo {
	return &mockShipmentRepo{shipments: make(map[string]*model.Shipment)}
}

func (m *mockShipmentRepo) Create(_ context.Context, sh *model.Shipment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.shipments[sh.ID]; ok {
		return gorm.ErrDuplicatedKey
	}
	sh.CreatedAt = time.Now()
	sh.UpdatedAt = sh.CreatedAt
	cp := *sh
	m.shipments[sh.ID] = &cp
	m.order = append(m.order, sh.ID)
	return nil
}

func (m *mockShipmentRepo) ExistsByID(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.shipments[id]
	return ok, nil
}

func (m *mockShipmentRepo) GetByID(_ context.Context, id string) (*model.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sh, ok := m.shipments[id]; ok {
		cp := *sh
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShipmentRepo) List(_ context.Context, filter repository.ShipmentFilter) ([]model.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]model.Shipment, 0)
	for _, id := range m.order {
		sh, ok := m.shipments[id]
		if !ok {
			continue
		}
		if filter.CustomerID != "" && (sh.CustomerID == nil || *sh.CustomerID != filter.CustomerID) {
			continue
		}
		if filter.Status != "" && sh.Status != filter.Status {
			continue
		}
		result = append(result, *sh)
	}
	return result, nil
}

// Update applies the column map the way gorm would for the columns the
// service writes.
func (m *mockShipmentRepo) Update(_ context.Context, id string, columns map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	sh, ok := m.shipments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.updates = append(m.updates, columns)
	for col, v := range columns {
		if err := applyColumn(sh, col, v); err != nil {
			return err
		}
	}
	sh.UpdatedAt = time.Now()
	return nil
}

func (m *mockShipmentRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shipments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.shipments, id)
	return nil
}

func applyColumn(sh *model.Shipment, col string, v interface{}) error {
	str := func() *string {
		switch t := v.(type) {
		case string:
			return &t
		case *string:
			return t
		}
		return nil
	}
	switch col {
	case "material_name":
		sh.MaterialName = *str()
	case "detail":
		sh.Detail = *str()
	case "quantity":
		sh.Quantity = v.(int)
	case "price_per_unit":
		sh.PricePerUnit = v.(decimal.Decimal)
	case "total_price":
		sh.TotalPrice = v.(decimal.Decimal)
	case "destination":
		sh.Destination = str()
	case "pickup_location":
		sh.PickupLocation = str()
	case "drop_location":
		sh.DropLocation = str()
	case "c_id":
		sh.CustomerID = str()
	case "e_id":
		sh.EmployeeID = str()
	case "d_id":
		sh.DealerID = str()
	case "status":
		sh.Status = *str()
	case "image1", "image2", "image3":
		idx := int(col[len(col)-1] - '1')
		sh.SetImage(idx, str())
	default:
		return fmt.Errorf("unknown column %q", col)
	}
	return nil
}

// ── Mock ImageStore ──

type mockImageStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	seq     int
	deleted []string
	failOn  int // fail the n-th Save (1-based); 0 never fails
	saves   int
}

func newMockImageStore() *mockImageStore {
	return &mockImageStore{objects: make(map[string][]byte)}
}

func (m *mockImageStore) Save(_ context.Context, prefix, _ string, r io.Reader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.failOn > 0 && m.saves == m.failOn {
		return "", errors.New("disk full")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.seq++
	key := fmt.Sprintf("%s_%d.jpg", prefix, m.seq)
	m.objects[key] = b
	return key, nil
}

func (m *mockImageStore) Open(_ context.Context, key string) (io.ReadCloser, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	if !ok {
		return nil, "", errors.New("image not found")
	}
	return io.NopCloser(bytes.NewReader(b)), "image/jpeg", nil
}

func (m *mockImageStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *mockImageStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

// ── Mock Publisher ──

type mockPublisher struct {
	mu       sync.Mutex
	events   []events.ShipmentEvent
	failWith error
}

func (m *mockPublisher) Publish(_ context.Context, e events.ShipmentEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.events = append(m.events, e)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}

// ── Mock TokenRevoker ──

type mockRevoker struct {
	revoked map[string]time.Duration
}

func (m *mockRevoker) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if m.revoked == nil {
		m.revoked = make(map[string]time.Duration)
	}
	m.revoked[jti] = ttl
	return nil
}
