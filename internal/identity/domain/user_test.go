package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser_CodePrefixByRole(t *testing.T) {
	cases := []struct {
		role   Role
		prefix string
	}{
		{RoleUser, "USR"},
		{RoleMember, "MMB"},
		{RoleAdmin, "ADM"},
		{RoleEmployee, "EMP"},
		{RoleCompany, "CMP"},
		{RoleMechanic, "RDR"},
	}

	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			user, err := NewUser("Asha", "+919800000000", "asha@example.com", tc.role, SegmentB2C)
			require.NoError(t, err)
			assert.Equal(t, tc.prefix, user.Code()[:3])
			assert.Len(t, user.Code(), 7)
		})
	}
}

func TestNewUser_InvalidRole(t *testing.T) {
	_, err := NewUser("Asha", "", "", Role("alien"), SegmentB2C)
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestNewUser_DefaultsToB2C(t *testing.T) {
	user, err := NewUser("Asha", "", "", RoleUser, "")
	require.NoError(t, err)
	assert.Equal(t, SegmentB2C, user.Segment())
}

func TestUser_IsMechanic(t *testing.T) {
	mechanic, err := NewUser("Ravi", "", "", RoleMechanic, SegmentB2C)
	require.NoError(t, err)
	customer, err := NewUser("Asha", "", "", RoleUser, SegmentB2C)
	require.NoError(t, err)

	assert.True(t, mechanic.IsMechanic())
	assert.False(t, customer.IsMechanic())
}
