package hashfarm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSumRefStats(t *testing.T) {
	payouts := []Referral{
		{UserId: 1, AuthorId: 2, Layer: 1, Amount: 5.00},
		{UserId: 1, AuthorId: 3, Layer: 1, Amount: 2.00},
		{UserId: 1, AuthorId: 4, Layer: 2, Amount: 2.50},
	}
	stats := SumRefStats(payouts)
	assert.Equal(t, uint(3), stats.TotalCounter)
	assert.Equal(t, uint(2), stats.LvlOneCounter)
	assert.Equal(t, uint(1), stats.LvlTwoCounter)
	assert.Equal(t, 9.50, stats.Total)
	assert.Equal(t, 7.00, stats.LvlOne)
	assert.Equal(t, 2.50, stats.LvlTwo)
}

func TestSumRefStatsEmpty(t *testing.T) {
	stats := SumRefStats(nil)
	assert.Equal(t, RefData{}, stats)
}
