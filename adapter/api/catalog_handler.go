package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/vaahanlabs/pitstop/internal/catalog/application"
	"github.com/vaahanlabs/pitstop/internal/catalog/domain"
)

// CatalogHandler handles catalog API requests.
type CatalogHandler struct {
	catalog *application.Service
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(catalog *application.Service, logger *slog.Logger) *CatalogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// CreateService handles POST /api/v1/services
func (h *CatalogHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		Active bool   `json:"active"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}

	service, err := h.catalog.CreateService(r.Context(), req.Name, req.Active)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toServiceDTO(service))
}

// ListServices handles GET /api/v1/services
func (h *CatalogHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	services, err := h.catalog.ListServices(r.Context(), activeOnly)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	dtos := make([]serviceDTO, len(services))
	for i, service := range services {
		dtos[i] = toServiceDTO(service)
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": dtos})
}

// CreatePlan handles POST /api/v1/plans
func (h *CatalogHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string                    `json:"name"`
		UsageLimit   int                       `json:"usageLimit"`
		Duration     int                       `json:"duration"`
		DurationUnit string                    `json:"durationUnit"`
		Pricing      map[string]planPricingDTO `json:"pricing"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}

	input := application.CreatePlanInput{
		Name:         req.Name,
		UsageLimit:   req.UsageLimit,
		Duration:     req.Duration,
		DurationUnit: domain.DurationUnit(req.DurationUnit),
		Pricing:      make(map[domain.Segment]domain.PlanPricing, len(req.Pricing)),
	}
	for segment, pricing := range req.Pricing {
		input.Pricing[domain.Segment(segment)] = domain.PlanPricing{
			OneTimePrice: pricing.OneTimePrice,
			MonthlyPrice: pricing.MonthlyPrice,
		}
	}

	plan, err := h.catalog.CreateSubscriptionPlan(r.Context(), input)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlanDTO(plan))
}

// ListPlans handles GET /api/v1/plans
func (h *CatalogHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	plans, err := h.catalog.ListPlans(r.Context(), activeOnly)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	dtos := make([]planDTO, len(plans))
	for i, plan := range plans {
		dtos[i] = toPlanDTO(plan)
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": dtos})
}

// GetPlan handles GET /api/v1/plans/{planID}
func (h *CatalogHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	planID, err := uuid.Parse(r.PathValue("planID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid plan id"})
		return
	}

	plan, err := h.catalog.GetPlan(r.Context(), planID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTO(plan))
}

// UpdatePlanServices handles PUT /api/v1/plans/{planID}/services
func (h *CatalogHandler) UpdatePlanServices(w http.ResponseWriter, r *http.Request) {
	planID, err := uuid.Parse(r.PathValue("planID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid plan id"})
		return
	}

	var req struct {
		ServiceIDs []uuid.UUID `json:"serviceIds"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}

	plan, err := h.catalog.UpdatePlanServices(r.Context(), planID, req.ServiceIDs)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTO(plan))
}

// CreateOneTimePlan handles POST /api/v1/one-time-plans
func (h *CatalogHandler) CreateOneTimePlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string             `json:"name"`
		Pricing map[string]float64 `json:"pricing"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}

	pricing := make(map[domain.Segment]float64, len(req.Pricing))
	for segment, price := range req.Pricing {
		pricing[domain.Segment(segment)] = price
	}

	plan, err := h.catalog.CreateOneTimePlan(r.Context(), req.Name, pricing)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOneTimePlanDTO(plan))
}

// ListOneTimePlans handles GET /api/v1/one-time-plans
func (h *CatalogHandler) ListOneTimePlans(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	plans, err := h.catalog.ListOneTimePlans(r.Context(), activeOnly)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	dtos := make([]oneTimePlanDTO, len(plans))
	for i, plan := range plans {
		dtos[i] = toOneTimePlanDTO(plan)
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": dtos})
}

// GetOneTimePlan handles GET /api/v1/one-time-plans/{planID}
func (h *CatalogHandler) GetOneTimePlan(w http.ResponseWriter, r *http.Request) {
	planID, err := uuid.Parse(r.PathValue("planID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid plan id"})
		return
	}

	plan, err := h.catalog.GetOneTimePlan(r.Context(), planID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOneTimePlanDTO(plan))
}
