package rewards

import (
	"errors"
	"fmt"
	"time"
)

// MaxAmount bounds a single credit or cash reward so the split arithmetic
// and the conservation check stay within int64.
const MaxAmount int64 = 1_000_000_000_000

var (
	ErrAmountTooLarge     = errors.New("reward amount exceeds the maximum")
	ErrCreatorIsConnector = errors.New("the creator cannot complete their own chain")
	ErrNegativeAmount     = errors.New("reward amounts must not be negative")
	ErrInvalidShare       = errors.New("connector share must be between 0 and 100")
)

// Policy controls how a reward is split along the winning path.
type Policy struct {
	ConnectorSharePercent int64
}

// Payout is the amount owed to one beneficiary.
type Payout struct {
	UserID    int64
	Credits   int64
	CashCents int64
}

// Distribution is the result of splitting a chain reward.
// Payouts only lists beneficiaries that are not frozen; the shares of
// frozen beneficiaries are summed into the Withheld fields.
type Distribution struct {
	Path              []int64
	Payouts           []Payout
	WithheldCredits   int64
	WithheldCashCents int64
}

// Distribute splits credits and cash along the path from connectorID up to,
// but excluding, the chain root.
func Distribute(nodes []Node, connectorID, credits, cashCents int64, policy Policy, now time.Time) (*Distribution, error) {
	if credits < 0 || cashCents < 0 {
		return nil, ErrNegativeAmount
	}
	if credits > MaxAmount || cashCents > MaxAmount {
		return nil, ErrAmountTooLarge
	}
	if policy.ConnectorSharePercent < 0 || policy.ConnectorSharePercent > 100 {
		return nil, ErrInvalidShare
	}

	path, err := PathToRoot(nodes, connectorID)
	if err != nil {
		return nil, err
	}
	if len(path) < 2 {
		return nil, ErrCreatorIsConnector
	}
	beneficiaries := path[:len(path)-1]

	creditShares := split(credits, len(beneficiaries), policy.ConnectorSharePercent)
	cashShares := split(cashCents, len(beneficiaries), policy.ConnectorSharePercent)

	byID := index(nodes)
	dist := &Distribution{Path: path}
	for i, userID := range beneficiaries {
		if byID[userID].frozenAt(now) {
			dist.WithheldCredits += creditShares[i]
			dist.WithheldCashCents += cashShares[i]
			continue
		}
		if creditShares[i] == 0 && cashShares[i] == 0 {
			continue
		}
		dist.Payouts = append(dist.Payouts, Payout{
			UserID:    userID,
			Credits:   creditShares[i],
			CashCents: cashShares[i],
		})
	}

	if got := dist.total(); got != credits+cashCents {
		return nil, fmt.Errorf("reward split lost value: got %d want %d", got, credits+cashCents)
	}
	return dist, nil
}

func (d *Distribution) total() int64 {
	sum := d.WithheldCredits + d.WithheldCashCents
	for _, p := range d.Payouts {
		sum += p.Credits + p.CashCents
	}
	return sum
}

// split divides amount between n beneficiaries where index 0 is the connector.
// The connector keeps any remainder of the integer division.
func split(amount int64, n int, connectorPercent int64) []int64 {
	shares := make([]int64, n)
	if n == 1 {
		shares[0] = amount
		return shares
	}

	connector := amount/100*connectorPercent + amount%100*connectorPercent/100
	rest := amount - connector
	each := rest / int64(n-1)
	for i := 1; i < n; i++ {
		shares[i] = each
	}
	shares[0] = connector + rest - each*int64(n-1)
	return shares
}
