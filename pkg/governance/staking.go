/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: staking.go
Description: Stake account management for the governance core. Validates stake
creation against minimum amount and lockup bounds, enforces the lockup window
on unstaking, and computes duration-weighted staking rewards.
*/

package governance

import (
	"github.com/glitchgremlin/glitch-sdk/pkg/interfaces"
)

// StakeManager validates stake lifecycle operations against the governance
// configuration
type StakeManager struct {
	config Config
	clock  interfaces.Clock
}

// NewStakeManager creates a stake manager
func NewStakeManager(config Config, clock interfaces.Clock) *StakeManager {
	if clock == nil {
		clock = interfaces.SystemClock{}
	}
	return &StakeManager{config: config, clock: clock}
}

// CreateStake validates and initializes a stake account
func (m *StakeManager) CreateStake(owner interfaces.Address, amount uint64, lockupPeriod int64) (*StakeInfo, error) {
	if amount == 0 {
		return nil, ErrInvalidStakeAmount
	}
	if amount < m.config.MinStakeAmount {
		return nil, ErrInsufficientStake.WithMessagef("%d staked, minimum is %d", amount, m.config.MinStakeAmount)
	}
	minLockup := int64(m.config.MinLockupPeriod.Seconds())
	maxLockup := int64(m.config.MaxLockupPeriod.Seconds())
	if lockupPeriod < minLockup || lockupPeriod > maxLockup {
		return nil, ErrInvalidLockupPeriod.WithMessagef("%d seconds, allowed range [%d, %d]", lockupPeriod, minLockup, maxLockup)
	}

	return &StakeInfo{
		Owner:        owner,
		Amount:       amount,
		LockupPeriod: lockupPeriod,
		StartTime:    m.clock.Now().Unix(),
		Rewards:      0,
	}, nil
}

// Unstake checks whether the stake can be released. Force bypasses the
// lockup window (the chain program applies the slashing penalty for forced
// exits; this component only gates the request).
func (m *StakeManager) Unstake(stake *StakeInfo, force bool) error {
	unlockAt := stake.StartTime + stake.LockupPeriod
	if !force && m.clock.Now().Unix() < unlockAt {
		return ErrStakeLocked.WithMessagef("locked until %d", unlockAt)
	}
	return nil
}

// CalculateRewards returns accrued rewards: base APY plus a duration bonus
// that scales linearly up to one year of staking, pro-rated by elapsed time.
func (m *StakeManager) CalculateRewards(stake *StakeInfo) uint64 {
	elapsed := m.clock.Now().Unix() - stake.StartTime
	if elapsed <= 0 {
		return 0
	}

	const yearSeconds = 365 * 24 * 3600
	years := float64(elapsed) / float64(yearSeconds)

	bonus := years * m.config.MaxDurationBonus
	if bonus > m.config.MaxDurationBonus {
		bonus = m.config.MaxDurationBonus
	}
	rate := m.config.BaseRewardRate + bonus

	return uint64(float64(stake.Amount) * rate * years)
}
