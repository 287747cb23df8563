// Package chain holds the consensus parameters of a crownhunt network:
// fork activation heights, the locked-coin schedule and version gates.
// Everything here is part of consensus; two nodes with different params
// will diverge.
package chain

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// COIN is the number of base units in one coin.  All amounts in the game
// state are base units.
const COIN int64 = 100000000

// Fork names a scheduled consensus rule change.
type Fork int

const (
	ForkPoison Fork = iota
	ForkCarryingCap
	ForkLessHearts
	ForkLifesteal
	ForkTimesave
)

// LockTier is one row of the locked-coin schedule: from MinHeight onwards a
// new hunter locks Coins whole coins.
type LockTier struct {
	MinHeight int64 `yaml:"min_height"`
	Coins     int64 `yaml:"coins"`
}

type Params struct {
	Network string `yaml:"network"`

	ForkHeightPoison      int64 `yaml:"fork_height_poison"`
	ForkHeightCarryingCap int64 `yaml:"fork_height_carrying_cap"`
	ForkHeightLessHearts  int64 `yaml:"fork_height_less_hearts"`
	ForkHeightLifesteal   int64 `yaml:"fork_height_lifesteal"`
	ForkHeightTimesave    int64 `yaml:"fork_height_timesave"`

	// Descending by MinHeight; the first matching tier wins.
	LockedCoinSchedule []LockTier `yaml:"locked_coin_schedule"`

	StateVersion      int `yaml:"state_version"`
	DAOMinVersionInit int `yaml:"dao_min_version_init"`
	NoBankTaxVersion  int `yaml:"no_bank_tax_version"`

	// Disaster pacing: never before MinGap blocks since the last one,
	// guaranteed by MaxGap, otherwise a 1-in-Chance roll per block.
	DisasterMinGap int64 `yaml:"disaster_min_gap"`
	DisasterMaxGap int64 `yaml:"disaster_max_gap"`
	DisasterChance int64 `yaml:"disaster_chance"`

	MaxCharactersPerPlayer int `yaml:"max_characters_per_player"`
	MaxCharactersLifetime  int `yaml:"max_characters_lifetime"`
}

// Main returns the production network parameters.
func Main() Params {
	return Params{
		Network:               "main",
		ForkHeightPoison:      50000,
		ForkHeightCarryingCap: 100000,
		ForkHeightLessHearts:  150000,
		ForkHeightLifesteal:   200000,
		ForkHeightTimesave:    250000,
		LockedCoinSchedule: []LockTier{
			{MinHeight: 30001, Coins: 20},
			{MinHeight: 20001, Coins: 30},
			{MinHeight: 10001, Coins: 50},
			{MinHeight: 0, Coins: 100},
		},
		StateVersion:           2020600,
		DAOMinVersionInit:      2020500,
		NoBankTaxVersion:       2020700,
		DisasterMinGap:         1440,
		DisasterMaxGap:         17280,
		DisasterChance:         10000,
		MaxCharactersPerPlayer: 20,
		MaxCharactersLifetime:  1000,
	}
}

// Regtest returns parameters with every fork active from genesis and short
// disaster gaps, for tests and local networks.
func Regtest() Params {
	p := Main()
	p.Network = "regtest"
	p.ForkHeightPoison = 0
	p.ForkHeightCarryingCap = 0
	p.ForkHeightLessHearts = 0
	p.ForkHeightLifesteal = 0
	p.ForkHeightTimesave = 0
	p.DisasterMinGap = 12
	p.DisasterMaxGap = 144
	p.DisasterChance = 100
	return p
}

// Load reads parameters from a YAML file.  Missing keys fall back to the
// main network values.
func Load(path string) (Params, error) {
	p := Main()
	raw, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("params.yaml: %w", err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

func (p Params) Validate() error {
	if len(p.LockedCoinSchedule) == 0 {
		return fmt.Errorf("empty locked coin schedule")
	}
	for i := 1; i < len(p.LockedCoinSchedule); i++ {
		if p.LockedCoinSchedule[i].MinHeight >= p.LockedCoinSchedule[i-1].MinHeight {
			return fmt.Errorf("locked coin schedule not descending at %d", i)
		}
	}
	if p.LockedCoinSchedule[len(p.LockedCoinSchedule)-1].MinHeight != 0 {
		return fmt.Errorf("locked coin schedule has no base tier")
	}
	if p.DisasterChance <= 0 || p.DisasterMinGap <= 0 || p.DisasterMaxGap < p.DisasterMinGap {
		return fmt.Errorf("bad disaster pacing")
	}
	return nil
}

// IsForkInEffect reports whether the fork is active at the given height.
func (p Params) IsForkInEffect(f Fork, height int64) bool {
	switch f {
	case ForkPoison:
		return height >= p.ForkHeightPoison
	case ForkCarryingCap:
		return height >= p.ForkHeightCarryingCap
	case ForkLessHearts:
		return height >= p.ForkHeightLessHearts
	case ForkLifesteal:
		return height >= p.ForkHeightLifesteal
	case ForkTimesave:
		return height >= p.ForkHeightTimesave
	}
	return false
}

// LockedCoinAmount returns the number of base units a hunter spawned at the
// given height locks as its bounty.
func (p Params) LockedCoinAmount(height int64) int64 {
	for _, tier := range p.LockedCoinSchedule {
		if height >= tier.MinHeight {
			return tier.Coins * COIN
		}
	}
	return p.LockedCoinSchedule[len(p.LockedCoinSchedule)-1].Coins * COIN
}
