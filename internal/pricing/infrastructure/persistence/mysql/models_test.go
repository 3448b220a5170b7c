package mysql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/latticepricing/internal/pricing/domain"
)

func pricedResult(t *testing.T, barrier *domain.Barrier) *domain.PricingResult {
	t.Helper()
	spec := domain.PayoffSpec{Kind: domain.OptionTypePut, Style: domain.ExerciseStyleAmerican, Strike: 105.5, Maturity: 0.5, Barrier: barrier}
	market := domain.MarketParameters{Volatility: 0.3, Spot: 100, Rate: 0.03, Steps: 4}
	v, err := domain.NewBinomialPricer(0).Price(spec, market)
	require.NoError(t, err)
	return domain.NewPricingResult("XYZ", spec, market, v, time.UnixMilli(1_700_000_000_000))
}

func TestPricingResultModelMapping(t *testing.T) {
	res := pricedResult(t, &domain.Barrier{Level: 85.25, Direction: domain.BarrierDirectionDown, Knock: domain.KnockIn})

	m := toPricingResultModel(res)
	require.NotNil(t, m.BarrierLevel)
	assert.Equal(t, "85.25", *m.BarrierLevel)
	assert.Equal(t, "105.5", m.StrikePrice)
	assert.Equal(t, "PUT", m.OptionType)
	assert.Len(t, m.AfterLattice, 5)

	back := toPricingResult(m)
	assert.True(t, back.StrikePrice.Equal(res.StrikePrice))
	assert.True(t, back.OptionPrice.Equal(res.OptionPrice))
	assert.True(t, back.BarrierLevel.Valid)
	assert.True(t, back.BarrierLevel.Decimal.Equal(res.BarrierLevel.Decimal))
	assert.Equal(t, res.KnockKind, back.KnockKind)
	assert.Equal(t, res.ValueLattice, back.ValueLattice)
}

func TestPricingResultModelMappingVanilla(t *testing.T) {
	res := pricedResult(t, nil)

	m := toPricingResultModel(res)
	assert.Nil(t, m.BarrierLevel)
	assert.Empty(t, m.KnockKind)

	back := toPricingResult(m)
	assert.False(t, back.BarrierLevel.Valid)
	assert.Nil(t, back.AfterLattice)
	assert.Nil(t, toPricingResult(nil))
	assert.Nil(t, toPricingResultModel(nil))
}
