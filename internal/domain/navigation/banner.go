package navigation

import (
	"sync"
	"time"

	"github.com/GriffinCanCode/glassd/internal/domain/notification"
)

// DefaultTimeout is how long a banner outlives its last navigation record.
const DefaultTimeout = 2 * time.Minute

// BannerState is what the display shows for the active route.
type BannerState struct {
	Active      bool               `json:"active"`
	Instruction string             `json:"instruction,omitempty"`
	Details     string             `json:"details,omitempty"`
	Direction   string             `json:"direction,omitempty"`
	HasIcon     bool               `json:"has_icon"`
	Icon        *notification.Icon `json:"icon,omitempty"`
	Source      string             `json:"source,omitempty"`
	UpdatedAt   time.Time          `json:"updated_at,omitempty"`
}

// Banner keeps the navigation banner alive between notifications.
type Banner struct {
	timeout time.Duration

	mu    sync.Mutex
	state BannerState
}

// NewBanner creates a tracker. A non-positive timeout uses DefaultTimeout.
func NewBanner(timeout time.Duration) *Banner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Banner{timeout: timeout}
}

// Update adopts the first navigation record of nav, which callers pass
// oldest first as Store.Recent returns it, or clears the banner once it has
// been idle longer than the timeout. It returns the resulting state.
func (b *Banner) Update(nav []notification.Record, now time.Time) BannerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(nav) > 0 {
		r := nav[0]
		instruction := Instruction(r)
		b.state = BannerState{
			Active:      true,
			Instruction: instruction,
			Details:     Details(r),
			Direction:   DirectionOf(instruction),
			HasIcon:     r.LargeIcon != nil,
			Icon:        r.LargeIcon,
			Source:      r.ApplicationName,
			UpdatedAt:   now,
		}
		return b.state
	}

	if b.state.Active && now.Sub(b.state.UpdatedAt) > b.timeout {
		b.state = BannerState{}
	}
	return b.state
}

// Snapshot returns the current state without updating it.
func (b *Banner) Snapshot() BannerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
