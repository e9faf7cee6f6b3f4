package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortedKeys(t *testing.T) {
	m := map[int]string{4: "e", 0: "c", 7: "g"}
	assert.Equal(t, []int{0, 4, 7}, SortedKeys(m))
	assert.Equal(t, []int{7, 4, 0}, SortedKeysFunc(m, func(a, b int) bool { return a > b }))
	assert.Empty(t, SortedKeys(map[string]int{}))
}

func TestMinMax(t *testing.T) {
	assert.Equal(t, 2, Min(2, 5))
	assert.Equal(t, -3, Min(4, -3))
	assert.Equal(t, 5, Max(2, 5))
	assert.Equal(t, 4, Max(4, -3))
}

func TestGCDAndLCM(t *testing.T) {
	assert.Equal(t, 4, GCD(12, 8))
	assert.Equal(t, 3, GCD(-9, 6))
	assert.Equal(t, 24, LCM(12, 8))
	assert.Equal(t, 480, LCM(480, 1))
	assert.Equal(t, 0, LCM(0, 5))
}
