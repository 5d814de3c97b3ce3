package embed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckMemoryBudget_DisabledWhenCapIsZero(t *testing.T) {
	assert.NoError(t, checkMemoryBudget(0))
}

func TestCheckMemoryBudget_FailsWhenCapIsBelowCurrentUsage(t *testing.T) {
	err := checkMemoryBudget(1)
	assert.Error(t, err)
}

func TestCheckMemoryBudget_PassesWithGenerousCap(t *testing.T) {
	err := checkMemoryBudget(1 << 40) // 1 TiB, comfortably above any test process
	assert.NoError(t, err)
}
