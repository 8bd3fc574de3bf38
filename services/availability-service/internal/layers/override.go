package layers

import (
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/availability"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
)

// OverrideIndex maps owner id -> date -> override rows.
type OverrideIndex map[string]map[string][]model.Override

func IndexOverrides(rows []model.Override) OverrideIndex {
	ix := make(OverrideIndex)
	for _, row := range rows {
		byDate, ok := ix[row.OwnerID]
		if !ok {
			byDate = make(map[string][]model.Override)
			ix[row.OwnerID] = byDate
		}
		byDate[row.Date] = append(byDate[row.Date], row)
	}
	return ix
}

func (ix OverrideIndex) For(ownerID, date string) []model.Override {
	return ix[ownerID][date]
}

// ApplyOverride evaluates the overrides of one owner on one date against base.
//
// A full block wins over everything. Otherwise replacement windows (unioned) take the
// place of base and partial blocks are subtracted from the outcome. Rows with only one
// of the two times set, or times that do not parse, are ignored.
func ApplyOverride(base []model.Window, overrides []model.Override) Result {
	var (
		replacements []model.Window
		blocks       []model.Window
		matched      bool
	)
	for _, o := range overrides {
		hasStart := o.StartTime != nil && *o.StartTime != ""
		hasEnd := o.EndTime != nil && *o.EndTime != ""
		if hasStart != hasEnd {
			continue
		}
		if !hasStart {
			if !o.IsAvailable {
				return BlockedResult()
			}
			continue
		}
		win, err := availability.ParseWindow(*o.StartTime, *o.EndTime)
		if err != nil {
			continue
		}
		matched = true
		if o.IsAvailable {
			replacements = append(replacements, win)
		} else {
			blocks = append(blocks, win)
		}
	}
	if !matched {
		return DeferResult()
	}

	windows := base
	if len(replacements) > 0 {
		windows = availability.CombineWindows(replacements)
	}
	return ReplaceResult(availability.SubtractWindows(windows, blocks))
}

// ApplyServiceOverride is the L1.5 layer.
func ApplyServiceOverride(ix OverrideIndex, serviceID, date string, base []model.Window) Result {
	return ApplyOverride(base, ix.For(serviceID, date))
}

// ApplyProviderOverride is the L3 layer. Replacement windows never extend past the
// service's own windows for the date.
func ApplyProviderOverride(ix OverrideIndex, providerID, date string, base, serviceWindows []model.Window) Result {
	r := ApplyOverride(base, ix.For(providerID, date))
	if r.Kind() != Replace {
		return r
	}
	return ReplaceResult(availability.IntersectWindows(r.Windows(), serviceWindows))
}
