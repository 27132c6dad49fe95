package rewards

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var half = Policy{ConnectorSharePercent: 50}

func TestDistributeSingleBeneficiary(t *testing.T) {
	dist, err := Distribute(sampleChain(), 5, 100, 2500, half, time.Now())
	require.NoError(t, err)

	require.Len(t, dist.Payouts, 1)
	assert.Equal(t, Payout{UserID: 5, Credits: 100, CashCents: 2500}, dist.Payouts[0])
	assert.Equal(t, []int64{5, 1}, dist.Path)
	assert.Zero(t, dist.WithheldCredits)
}

func TestDistributeAlongPath(t *testing.T) {
	dist, err := Distribute(sampleChain(), 4, 100, 0, half, time.Now())
	require.NoError(t, err)

	assert.Equal(t, []Payout{
		{UserID: 4, Credits: 50},
		{UserID: 3, Credits: 25},
		{UserID: 2, Credits: 25},
	}, dist.Payouts)
}

func TestDistributeRemainderGoesToConnector(t *testing.T) {
	dist, err := Distribute(sampleChain(), 4, 101, 0, half, time.Now())
	require.NoError(t, err)

	assert.Equal(t, []Payout{
		{UserID: 4, Credits: 51},
		{UserID: 3, Credits: 25},
		{UserID: 2, Credits: 25},
	}, dist.Payouts)
}

func TestDistributeFrozenShareIsWithheld(t *testing.T) {
	now := time.Now()
	until := now.Add(time.Hour)
	nodes := sampleChain()
	nodes[2].FrozenUntil = &until

	dist, err := Distribute(nodes, 4, 100, 1000, half, now)
	require.NoError(t, err)

	assert.Equal(t, []Payout{
		{UserID: 4, Credits: 50, CashCents: 500},
		{UserID: 2, Credits: 25, CashCents: 250},
	}, dist.Payouts)
	assert.Equal(t, int64(25), dist.WithheldCredits)
	assert.Equal(t, int64(250), dist.WithheldCashCents)
}

func TestDistributeExpiredFreezeIsPaid(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	nodes := sampleChain()
	nodes[2].FrozenUntil = &past

	dist, err := Distribute(nodes, 4, 100, 0, half, now)
	require.NoError(t, err)
	assert.Len(t, dist.Payouts, 3)
	assert.Zero(t, dist.WithheldCredits)
}

func TestDistributeRejectsCreator(t *testing.T) {
	_, err := Distribute(sampleChain(), 1, 100, 0, half, time.Now())
	require.ErrorIs(t, err, ErrCreatorIsConnector)
}

func TestDistributeRejectsBadInput(t *testing.T) {
	_, err := Distribute(sampleChain(), 4, -1, 0, half, time.Now())
	require.ErrorIs(t, err, ErrNegativeAmount)

	_, err = Distribute(sampleChain(), 4, 10, 0, Policy{ConnectorSharePercent: 120}, time.Now())
	require.ErrorIs(t, err, ErrInvalidShare)

	_, err = Distribute(sampleChain(), 99, 10, 0, half, time.Now())
	require.ErrorIs(t, err, ErrUnknownParticipant)
}

func TestDistributeConservesValue(t *testing.T) {
	now := time.Now()
	frozen := now.Add(time.Hour)
	for _, pct := range []int64{0, 33, 50, 100} {
		for amount := int64(0); amount <= 257; amount += 17 {
			nodes := sampleChain()
			nodes[1].FrozenUntil = &frozen
			dist, err := Distribute(nodes, 4, amount, amount*3, Policy{ConnectorSharePercent: pct}, now)
			require.NoError(t, err)

			var credits, cash int64
			for _, p := range dist.Payouts {
				credits += p.Credits
				cash += p.CashCents
			}
			assert.Equal(t, amount, credits+dist.WithheldCredits, "pct=%d amount=%d", pct, amount)
			assert.Equal(t, amount*3, cash+dist.WithheldCashCents, "pct=%d amount=%d", pct, amount)
		}
	}
}

func TestDistributeLargeAmountSplitsEvenly(t *testing.T) {
	nodes := []Node{{UserID: 1}, {UserID: 2, ParentID: 1}, {UserID: 3, ParentID: 2}}
	dist, err := Distribute(nodes, 3, 10, MaxAmount, half, time.Now())
	require.NoError(t, err)

	assert.Equal(t, []Payout{
		{UserID: 3, Credits: 5, CashCents: MaxAmount / 2},
		{UserID: 2, Credits: 5, CashCents: MaxAmount / 2},
	}, dist.Payouts)
}

func TestDistributeRejectsOversizedAmount(t *testing.T) {
	_, err := Distribute(sampleChain(), 4, 10, math.MaxInt64/2, half, time.Now())
	require.ErrorIs(t, err, ErrAmountTooLarge)

	_, err = Distribute(sampleChain(), 4, MaxAmount+1, 0, half, time.Now())
	require.ErrorIs(t, err, ErrAmountTooLarge)
}
