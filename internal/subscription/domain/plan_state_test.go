package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPlanState_Usable(t *testing.T) {
	state := &PlanState{IsVerified: true, IsSubscribed: true, UsageLimit: 2}
	assert.True(t, state.Usable())

	state.UsageLimit = 0
	assert.False(t, state.Usable())

	state.UsageLimit = 3
	state.IsVerified = false
	assert.False(t, state.Usable())

	var nilState *PlanState
	assert.False(t, nilState.Usable())
}

func TestPlanState_Expired(t *testing.T) {
	now := time.Now()
	state := &PlanState{EndDate: now.Add(time.Hour)}
	assert.False(t, state.Expired(now))
	assert.True(t, state.Expired(now.Add(time.Hour)))
	assert.True(t, state.Expired(now.Add(2*time.Hour)))
}

func TestPlanState_Exhausted(t *testing.T) {
	state := &PlanState{UsageLimit: 1}
	assert.False(t, state.Exhausted())

	state.UsageLimit = 0
	assert.True(t, state.Exhausted())
}

func TestPlanState_HasServices(t *testing.T) {
	wash := uuid.New()
	oil := uuid.New()
	tires := uuid.New()
	state := &PlanState{Services: []uuid.UUID{wash, oil}}

	assert.True(t, state.HasService(wash))
	assert.False(t, state.HasService(tires))
	assert.True(t, state.HasServices([]uuid.UUID{wash, oil}))
	assert.True(t, state.HasServices(nil))
	assert.False(t, state.HasServices([]uuid.UUID{wash, tires}))

	var nilState *PlanState
	assert.False(t, nilState.HasService(wash))
}
