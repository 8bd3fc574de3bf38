package availability

import (
	"sort"

	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
)

// CombineWindows sorts by start and merges windows that overlap or touch.
func CombineWindows(windows []model.Window) []model.Window {
	if len(windows) == 0 {
		return nil
	}
	sorted := make([]model.Window, len(windows))
	copy(sorted, windows)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	out := []model.Window{sorted[0]}
	for _, w := range sorted[1:] {
		last := &out[len(out)-1]
		if w.Start <= last.End {
			if w.End > last.End {
				last.End = w.End
			}
			continue
		}
		out = append(out, w)
	}
	return out
}

// IntersectWindows returns every pairwise overlap of a and b, combined.
// The result is empty when either side is empty and does not depend on argument order.
func IntersectWindows(a, b []model.Window) []model.Window {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	var out []model.Window
	for _, x := range a {
		for _, y := range b {
			start := max(x.Start, y.Start)
			end := min(x.End, y.End)
			if start < end {
				out = append(out, model.Window{Start: start, End: end})
			}
		}
	}
	return CombineWindows(out)
}

// SubtractWindow removes the overlap with block from each window.
// Order is preserved and nothing is merged.
func SubtractWindow(windows []model.Window, block model.Window) []model.Window {
	out := make([]model.Window, 0, len(windows)+1)
	for _, w := range windows {
		if block.End <= w.Start || block.Start >= w.End {
			out = append(out, w)
			continue
		}
		if w.Start < block.Start {
			out = append(out, model.Window{Start: w.Start, End: block.Start})
		}
		if block.End < w.End {
			out = append(out, model.Window{Start: block.End, End: w.End})
		}
	}
	return out
}

func SubtractWindows(windows []model.Window, blocks []model.Window) []model.Window {
	out := windows
	for _, b := range blocks {
		out = SubtractWindow(out, b)
	}
	return out
}

// ContainsRange reports whether [start, end) lies inside a single window.
func ContainsRange(windows []model.Window, start, end int) bool {
	for _, w := range windows {
		if start >= w.Start && end <= w.End {
			return true
		}
	}
	return false
}
