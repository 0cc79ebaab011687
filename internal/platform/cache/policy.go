package cache

import (
	"fmt"
	"strings"
	"time"
)

// Entry is a single cached payload with the time it was written.
type Entry[T any] struct {
	Key       string
	Payload   T
	WrittenAt time.Time
}

// Age reports how old the entry is at now. A zero WrittenAt is treated as infinitely old.
func (e Entry[T]) Age(now time.Time) time.Duration {
	if e.WrittenAt.IsZero() {
		return time.Duration(1<<63 - 1)
	}
	return now.Sub(e.WrittenAt)
}

type PolicyKind string

const (
	PolicyWindow        PolicyKind = "window"
	PolicyUntilMidnight PolicyKind = "midnight"
)

// Policy decides whether an entry written at some time may still be served.
type Policy struct {
	Kind     PolicyKind
	Window   time.Duration
	Location *time.Location
}

// Window accepts entries younger than d.
func Window(d time.Duration) Policy {
	return Policy{Kind: PolicyWindow, Window: d}
}

// UntilMidnight accepts entries written on the current calendar day in loc.
func UntilMidnight(loc *time.Location) Policy {
	if loc == nil {
		loc = time.Local
	}
	return Policy{Kind: PolicyUntilMidnight, Location: loc}
}

func (p Policy) Validate() error {
	switch p.Kind {
	case PolicyWindow:
		if p.Window <= 0 {
			return fmt.Errorf("window policy requires a positive duration")
		}
	case PolicyUntilMidnight:
	default:
		return fmt.Errorf("unknown cache policy kind %q", p.Kind)
	}
	return nil
}

// Fresh reports whether something written at writtenAt is still valid at now.
func (p Policy) Fresh(writtenAt, now time.Time) bool {
	if writtenAt.IsZero() || writtenAt.After(now) {
		return false
	}

	switch p.Kind {
	case PolicyWindow:
		return now.Sub(writtenAt) < p.Window
	case PolicyUntilMidnight:
		loc := p.Location
		if loc == nil {
			loc = time.Local
		}
		wy, wm, wd := writtenAt.In(loc).Date()
		ny, nm, nd := now.In(loc).Date()
		return wy == ny && wm == nm && wd == nd
	default:
		return false
	}
}

// ExpiresAt is the first instant at which an entry written at writtenAt stops being fresh.
func (p Policy) ExpiresAt(writtenAt time.Time) time.Time {
	switch p.Kind {
	case PolicyWindow:
		return writtenAt.Add(p.Window)
	case PolicyUntilMidnight:
		loc := p.Location
		if loc == nil {
			loc = time.Local
		}
		local := writtenAt.In(loc)
		y, m, d := local.Date()
		return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	default:
		return writtenAt
	}
}

func (p Policy) String() string {
	switch p.Kind {
	case PolicyWindow:
		return "window(" + p.Window.String() + ")"
	case PolicyUntilMidnight:
		name := "Local"
		if p.Location != nil {
			name = p.Location.String()
		}
		return "until-midnight(" + name + ")"
	default:
		return "unknown"
	}
}

// ParsePolicy understands "midnight" or any time.ParseDuration string such as "1h".
func ParsePolicy(raw string, loc *time.Location) (Policy, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return Policy{}, fmt.Errorf("staleness is empty")
	}
	if value == string(PolicyUntilMidnight) || value == "today" {
		return UntilMidnight(loc), nil
	}

	window, err := time.ParseDuration(value)
	if err != nil {
		return Policy{}, fmt.Errorf("parse staleness %q: %w", raw, err)
	}
	policy := Window(window)
	if err := policy.Validate(); err != nil {
		return Policy{}, err
	}
	return policy, nil
}
