// Package layers holds the per-layer index and apply/check functions of the availability engine.
//
// Window layers (service schedule, service override, provider schedule, provider override)
// return a Result. Conflict layers (bookings, external calendar) answer per candidate slot.
package layers

import "github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"

type Kind int

const (
	// Defer keeps whatever the previous layer produced.
	Defer Kind = iota
	// Blocked means no availability for the date.
	Blocked
	// Replace substitutes the previous layer's windows.
	Replace
)

func (k Kind) String() string {
	switch k {
	case Defer:
		return "defer"
	case Blocked:
		return "blocked"
	case Replace:
		return "replace"
	default:
		return "unknown"
	}
}

type Result struct {
	kind    Kind
	windows []model.Window
}

func DeferResult() Result { return Result{kind: Defer} }

func BlockedResult() Result { return Result{kind: Blocked} }

// ReplaceResult normalizes an empty replacement to Blocked.
func ReplaceResult(windows []model.Window) Result {
	if len(windows) == 0 {
		return BlockedResult()
	}
	out := make([]model.Window, len(windows))
	copy(out, windows)
	return Result{kind: Replace, windows: out}
}

func (r Result) Kind() Kind { return r.kind }

func (r Result) Windows() []model.Window {
	if r.kind != Replace {
		return nil
	}
	return r.windows
}

// Resolve applies the result on top of base.
func (r Result) Resolve(base []model.Window) []model.Window {
	switch r.kind {
	case Replace:
		return r.windows
	case Blocked:
		return nil
	default:
		return base
	}
}
