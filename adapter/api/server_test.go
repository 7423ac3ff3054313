package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaahanlabs/pitstop/internal/catalog/application"
	catalogDomain "github.com/vaahanlabs/pitstop/internal/catalog/domain"
	"github.com/vaahanlabs/pitstop/pkg/observability"
)

type memServices struct {
	services map[uuid.UUID]*catalogDomain.Service
}

func (m *memServices) Save(ctx context.Context, service *catalogDomain.Service) error {
	m.services[service.ID()] = service
	return nil
}

func (m *memServices) FindByID(ctx context.Context, id uuid.UUID) (*catalogDomain.Service, error) {
	service, ok := m.services[id]
	if !ok {
		return nil, catalogDomain.ErrServiceNotFound
	}
	return service, nil
}

func (m *memServices) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalogDomain.Service, error) {
	var found []*catalogDomain.Service
	for _, id := range ids {
		if service, ok := m.services[id]; ok {
			found = append(found, service)
		}
	}
	return found, nil
}

func (m *memServices) FindAll(ctx context.Context, activeOnly bool) ([]*catalogDomain.Service, error) {
	var all []*catalogDomain.Service
	for _, service := range m.services {
		if activeOnly && !service.Active() {
			continue
		}
		all = append(all, service)
	}
	return all, nil
}

type memPlans struct {
	plans map[uuid.UUID]*catalogDomain.SubscriptionPlan
}

func (m *memPlans) Save(ctx context.Context, plan *catalogDomain.SubscriptionPlan) error {
	m.plans[plan.ID()] = plan
	return nil
}

func (m *memPlans) FindByID(ctx context.Context, id uuid.UUID) (*catalogDomain.SubscriptionPlan, error) {
	plan, ok := m.plans[id]
	if !ok {
		return nil, catalogDomain.ErrPlanNotFound
	}
	return plan, nil
}

func (m *memPlans) FindByName(ctx context.Context, name string) (*catalogDomain.SubscriptionPlan, error) {
	for _, plan := range m.plans {
		if plan.Name() == name {
			return plan, nil
		}
	}
	return nil, catalogDomain.ErrPlanNotFound
}

func (m *memPlans) FindAll(ctx context.Context, activeOnly bool) ([]*catalogDomain.SubscriptionPlan, error) {
	var all []*catalogDomain.SubscriptionPlan
	for _, plan := range m.plans {
		all = append(all, plan)
	}
	return all, nil
}

func (m *memPlans) AddCurrentSubscriber(ctx context.Context, planID, userID uuid.UUID) error {
	return nil
}

func (m *memPlans) MoveSubscriberToPast(ctx context.Context, planID, userID uuid.UUID) error {
	return nil
}

type memOneTimePlans struct {
	plans map[uuid.UUID]*catalogDomain.OneTimePlan
}

func (m *memOneTimePlans) Save(ctx context.Context, plan *catalogDomain.OneTimePlan) error {
	m.plans[plan.ID()] = plan
	return nil
}

func (m *memOneTimePlans) FindByID(ctx context.Context, id uuid.UUID) (*catalogDomain.OneTimePlan, error) {
	plan, ok := m.plans[id]
	if !ok {
		return nil, catalogDomain.ErrOneTimePlanNotFound
	}
	return plan, nil
}

func (m *memOneTimePlans) FindAll(ctx context.Context, activeOnly bool) ([]*catalogDomain.OneTimePlan, error) {
	var all []*catalogDomain.OneTimePlan
	for _, plan := range m.plans {
		all = append(all, plan)
	}
	return all, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	catalog := application.NewService(
		&memServices{services: make(map[uuid.UUID]*catalogDomain.Service)},
		&memPlans{plans: make(map[uuid.UUID]*catalogDomain.SubscriptionPlan)},
		&memOneTimePlans{plans: make(map[uuid.UUID]*catalogDomain.OneTimePlan)},
		nil,
	)
	handlers := Handlers{
		Catalog:       NewCatalogHandler(catalog, nil),
		Users:         NewUserHandler(nil, nil),
		Subscriptions: NewSubscriptionHandler(SubscriptionHandlerConfig{}),
		Orders:        NewOrderHandler(OrderHandlerConfig{}),
	}
	return NewServer(DefaultServerConfig(), handlers, observability.NewHealthRegistry(), nil)
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestServer_CreateAndListServices(t *testing.T) {
	s := newTestServer(t)

	body, err := json.Marshal(map[string]any{"name": "Engine Oil Change", "active": true})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/services", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var created serviceDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Engine Oil Change", created.Name)
	assert.Equal(t, "SR", created.Code[:2])

	req = httptest.NewRequest(http.MethodGet, "/api/v1/services", nil)
	rec = httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Services []serviceDTO `json:"services"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Services, 1)
	assert.Equal(t, created.ID, listed.Services[0].ID)
}

func TestServer_CreateService_EmptyName(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/services", bytes.NewReader([]byte(`{"name":""}`)))
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_GetPlan_NotFound(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/plans/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
