package scalexone

// XPPerLevel is the XP needed per level; reaching Level*XPPerLevel levels up.
const XPPerLevel = 1000

// ModuleState is derived from a module's progress percentage.
type ModuleState string

const (
	ModulePending   ModuleState = "pending"
	ModuleActive    ModuleState = "active"
	ModuleCompleted ModuleState = "completed"
)

// DeriveModuleState maps a progress percentage onto its state.
func DeriveModuleState(progress int) ModuleState {
	switch {
	case progress >= 100:
		return ModuleCompleted
	case progress > 0:
		return ModuleActive
	default:
		return ModulePending
	}
}

// ModuleProgress tracks a single learning module.
type ModuleProgress struct {
	FriendlyName    string      `json:"friendly_name"`
	Description     string      `json:"description"`
	ProgressPercent int         `json:"progress_percent"`
	State           ModuleState `json:"state"`
}

// WithProgress returns a copy with progress clamped to [0,100] and the state
// re-derived.
func (m ModuleProgress) WithProgress(progress int) ModuleProgress {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	m.ProgressPercent = progress
	m.State = DeriveModuleState(progress)
	return m
}

// Gamification holds the member's level, XP and coin counters.
type Gamification struct {
	Level int `json:"level"`
	XP    int `json:"xp"`
	Coins int `json:"coins"`
}

// NewGamification returns counters for a fresh member.
func NewGamification() Gamification {
	return Gamification{Level: 1}
}

// AddXP adds amount and levels up at most once. When the total reaches
// Level*XPPerLevel the threshold is subtracted and the level increments; any
// remainder above the next threshold is carried rather than rolled again.
func (g Gamification) AddXP(amount int) Gamification {
	if g.Level < 1 {
		g.Level = 1
	}
	g.XP += amount
	if g.XP < 0 {
		g.XP = 0
	}
	if threshold := g.Level * XPPerLevel; g.XP >= threshold {
		g.XP -= threshold
		g.Level++
	}
	return g
}

// AddCoins adjusts the coin balance, never dropping below zero.
func (g Gamification) AddCoins(amount int) Gamification {
	g.Coins += amount
	if g.Coins < 0 {
		g.Coins = 0
	}
	return g
}
