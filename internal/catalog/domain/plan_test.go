package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSubscriptionPlan(t *testing.T) {
	plan, err := NewSubscriptionPlan("Gold", 12, 1, DurationYear)
	require.NoError(t, err)

	assert.Equal(t, "Gold", plan.Name())
	assert.True(t, plan.Active())
	assert.Equal(t, 12, plan.UsageLimit())
	assert.Equal(t, 1, plan.Duration())
	assert.Equal(t, DurationYear, plan.DurationUnit())
	assert.Empty(t, plan.Services())
}

func TestNewSubscriptionPlan_EmptyName(t *testing.T) {
	_, err := NewSubscriptionPlan("  ", 12, 1, DurationYear)
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestNewSubscriptionPlan_DefaultsToYearly(t *testing.T) {
	plan, err := NewSubscriptionPlan("Gold", 12, 1, "")
	require.NoError(t, err)
	assert.Equal(t, DurationYear, plan.DurationUnit())
}

func TestSubscriptionPlan_PricingBySegment(t *testing.T) {
	plan, err := NewSubscriptionPlan("Gold", 12, 1, DurationYear)
	require.NoError(t, err)

	plan.SetPricing(SegmentB2C, PlanPricing{OneTimePrice: 4999, MonthlyPrice: 499})

	price, err := plan.MonthlyPriceFor(SegmentB2C)
	require.NoError(t, err)
	assert.Equal(t, 499.0, price)

	_, err = plan.MonthlyPriceFor(SegmentB2B)
	assert.ErrorIs(t, err, ErrNoPricing)
}

func TestSubscriptionPlan_Services(t *testing.T) {
	plan, err := NewSubscriptionPlan("Gold", 12, 1, DurationYear)
	require.NoError(t, err)

	oilChange := uuid.New()
	brakes := uuid.New()

	require.NoError(t, plan.AddService(oilChange))
	require.NoError(t, plan.AddService(brakes))
	assert.ErrorIs(t, plan.AddService(oilChange), ErrServiceAlreadyInPlan)

	assert.True(t, plan.HasService(oilChange))
	assert.True(t, plan.HasServices([]uuid.UUID{oilChange, brakes}))
	assert.False(t, plan.HasServices([]uuid.UUID{oilChange, uuid.New()}))
}

func TestSubscriptionPlan_ReplaceServices(t *testing.T) {
	plan, err := NewSubscriptionPlan("Gold", 12, 1, DurationYear)
	require.NoError(t, err)

	keep := uuid.New()
	drop := uuid.New()
	add := uuid.New()
	require.NoError(t, plan.AddService(keep))
	require.NoError(t, plan.AddService(drop))

	added, removed := plan.ReplaceServices([]uuid.UUID{keep, add, add})

	assert.Equal(t, []uuid.UUID{add}, added)
	assert.Equal(t, []uuid.UUID{drop}, removed)
	assert.Equal(t, []uuid.UUID{keep, add}, plan.Services())
}

func TestSubscriptionPlan_PeriodEnd(t *testing.T) {
	start := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)

	yearly, err := NewSubscriptionPlan("Gold", 12, 1, DurationYear)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2027, time.January, 15, 0, 0, 0, 0, time.UTC), yearly.PeriodEnd(start))

	quarterly, err := NewSubscriptionPlan("Trial", 3, 3, DurationMonth)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC), quarterly.PeriodEnd(start))
}

func TestNewService(t *testing.T) {
	service, err := NewService("Oil Change", true)
	require.NoError(t, err)

	assert.Equal(t, "Oil Change", service.Name())
	assert.True(t, service.Active())
	assert.Len(t, service.Code(), 6)
	assert.Equal(t, "SR", service.Code()[:2])
}

func TestNewService_EmptyName(t *testing.T) {
	_, err := NewService("", true)
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestOneTimePlan_PriceFor(t *testing.T) {
	plan, err := NewOneTimePlan("Full Body Wash")
	require.NoError(t, err)

	plan.SetPrice(SegmentB2B, 1500)

	price, err := plan.PriceFor(SegmentB2B)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, price)

	_, err = plan.PriceFor(SegmentB2C)
	assert.ErrorIs(t, err, ErrNoPricing)
}
