package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomerTierValid(t *testing.T) {
	for _, tier := range Tiers {
		assert.True(t, tier.Valid(), tier)
	}
	assert.False(t, CustomerTier("").Valid())
	assert.False(t, CustomerTier("retail").Valid())
}

func TestProductionStateValid(t *testing.T) {
	tests := []struct {
		state ProductionState
		want  bool
	}{
		{ProductionNotStarted, true},
		{ProductionInProgress, true},
		{ProductionDone, true},
		{"", false},
		{"Cancelled", false},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, test.state.Valid(), test.state)
	}
}

func TestExpenseTotal(t *testing.T) {
	assert.Equal(t, Money(150000), Expense{Quantity: 3, UnitCost: 50000}.Total())
	assert.Equal(t, Money(0), Expense{Quantity: 0, UnitCost: 50000}.Total())
}
