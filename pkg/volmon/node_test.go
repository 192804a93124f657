package volmon

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeIDValid(t *testing.T) {
	tests := []struct {
		name string
		id   NodeID
		want bool
	}{
		{"zero is reserved", 0, false},
		{"smallest bindable id", 1, true},
		{"typical id", 42, true},
		{"largest bindable id", NodeID(math.MaxUint32 - 1), true},
		{"max is the invalid sentinel", NodeID(math.MaxUint32), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.id.Valid())
		})
	}
}

func TestInvalidNodeIDIsInvalid(t *testing.T) {
	assert.False(t, InvalidNodeID.Valid())
}
