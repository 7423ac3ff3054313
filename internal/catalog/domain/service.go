package domain

import (
	"errors"
	"strings"

	"github.com/vaahanlabs/pitstop/internal/shared/domain"
	"github.com/vaahanlabs/pitstop/pkg/shortid"
)

var (
	ErrEmptyName            = errors.New("name cannot be empty")
	ErrServiceNotFound      = errors.New("service not found")
	ErrPlanNotFound         = errors.New("subscription plan not found")
	ErrOneTimePlanNotFound  = errors.New("one-time plan not found")
	ErrNoPricing            = errors.New("no pricing configured for customer segment")
	ErrServiceAlreadyInPlan = errors.New("service already added to plan")
	ErrUnknownService       = errors.New("one or more service ids are invalid")
)

// Service is a single workshop service (e.g. oil change, brake inspection)
// that plans bundle together.
type Service struct {
	domain.BaseEntity
	code   string
	name   string
	active bool
}

// NewService creates a new service with a generated "SR…" code.
func NewService(name string, active bool) (*Service, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	return &Service{
		BaseEntity: domain.NewBaseEntity(),
		code:       shortid.New("SR"),
		name:       name,
		active:     active,
	}, nil
}

// RehydrateService recreates a service from persisted state.
func RehydrateService(entity domain.BaseEntity, code, name string, active bool) *Service {
	return &Service{
		BaseEntity: entity,
		code:       code,
		name:       name,
		active:     active,
	}
}

func (s *Service) Code() string { return s.code }
func (s *Service) Name() string { return s.name }
func (s *Service) Active() bool { return s.active }

// Deactivate retires the service from new plans without deleting history.
func (s *Service) Deactivate() {
	s.active = false
	s.Touch()
}
