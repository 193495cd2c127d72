/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: weight.go
Description: Vote weight calculation for the governance core. Computes a
voter's effective weight as direct token balance plus delegated balances,
with an optional fixed multiplier for bonus-eligible voters.
*/

package governance

import (
	"context"

	"github.com/glitchgremlin/glitch-sdk/pkg/interfaces"
	"github.com/sirupsen/logrus"
)

// BonusChecker reports whether a voter qualifies for the weight bonus.
// Implementations may consult stake age, NFT ownership, or any other
// eligibility rule; errors are treated as "not eligible".
type BonusChecker interface {
	IsEligible(ctx context.Context, voter interfaces.Address) (bool, error)
}

// VoteWeightCalculator computes effective voting weight from balances and
// delegation records
type VoteWeightCalculator struct {
	balances        interfaces.BalanceSource
	bonus           BonusChecker // Optional, may be nil
	bonusMultiplier uint64
	log             *logrus.Logger
}

// NewVoteWeightCalculator creates a weight calculator. bonus may be nil, in
// which case the multiplier stays at 1 for every voter.
func NewVoteWeightCalculator(balances interfaces.BalanceSource, bonus BonusChecker, bonusMultiplier uint64, log *logrus.Logger) *VoteWeightCalculator {
	if bonusMultiplier == 0 {
		bonusMultiplier = 1
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &VoteWeightCalculator{
		balances:        balances,
		bonus:           bonus,
		bonusMultiplier: bonusMultiplier,
		log:             log,
	}
}

// Calculate returns the voter's total effective weight: direct balance plus
// the sum of balances delegated to the voter, times the bonus multiplier when
// the voter is bonus-eligible. The result is never negative; missing balances
// count as zero.
func (c *VoteWeightCalculator) Calculate(ctx context.Context, voter interfaces.Address) (uint64, error) {
	direct, err := c.balances.GetBalance(ctx, voter)
	if err != nil {
		return 0, ErrConnectionFailed.WithCause(err)
	}

	delegations, err := c.balances.GetDelegations(ctx, voter)
	if err != nil {
		return 0, ErrConnectionFailed.WithCause(err)
	}

	var delegated uint64
	for _, d := range delegations {
		if d.Delegate != voter {
			continue
		}
		delegated += d.Amount
	}

	weight := direct + delegated

	multiplier := uint64(1)
	if c.bonus != nil {
		eligible, err := c.bonus.IsEligible(ctx, voter)
		if err != nil {
			// The bonus path must never fail a vote; fall back to 1x.
			c.log.WithFields(logrus.Fields{
				"voter": voter.String(),
				"error": err,
			}).Warn("Bonus eligibility check failed, using base weight")
		} else if eligible {
			multiplier = c.bonusMultiplier
		}
	}

	return weight * multiplier, nil
}
