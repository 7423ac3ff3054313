package shortid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	id := New("SR")

	assert.Len(t, id, 6)
	assert.True(t, strings.HasPrefix(id, "SR"))
	for _, c := range id[2:] {
		assert.Contains(t, alphabet, string(c))
	}
}

func TestNew_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	collisions := 0
	for i := 0; i < 1000; i++ {
		id := New("USR")
		if seen[id] {
			collisions++
		}
		seen[id] = true
	}
	// 36^4 keyspace; a handful of collisions in 1000 draws is acceptable.
	assert.Less(t, collisions, 10)
}
