package hashfarm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOfferMatchesTypeAndPrice(t *testing.T) {
	offer := FindOffer("rig_1000", 1000)
	require.NotNil(t, offer)
	assert.Equal(t, 1000.0, offer.Price)
	assert.Equal(t, 20.0, offer.DailyReturn)
	assert.Equal(t, uint(90), offer.MiningDays)
}

func TestFindOfferRejectsMismatchedPrice(t *testing.T) {
	assert.Nil(t, FindOffer("rig_1000", 4000))
	assert.Nil(t, FindOffer("rig_1000", 0))
}

func TestFindOfferRejectsUnknownType(t *testing.T) {
	assert.Nil(t, FindOffer("rig_2000", 2000))
	assert.Nil(t, FindOffer("", 1000))
}

func TestCatalogReturnsArePricePercentage(t *testing.T) {
	for _, offer := range AvailableRigs {
		assert.Equal(t, offer.Price*RigDailyRate, offer.DailyReturn, offer.RigType)
	}
}
