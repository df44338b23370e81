package checklist

import (
	"strings"

	"github.com/marcus/onboard/internal/models"
)

// NormalizeItems merges persisted items onto a catalog. Every catalog item
// is present in catalog order; persisted done/locked values override the
// defaults for matching IDs while title and ETA always come from the
// catalog. Persisted items the catalog no longer knows are appended as
// extras so progress recorded against an older catalog is never dropped.
// Items without an ID are discarded and duplicate IDs keep the first entry.
func NormalizeItems(catalog, persisted []models.Item) []models.Item {
	if len(persisted) == 0 {
		return models.CloneItems(catalog)
	}

	incoming := make(map[string]models.Item, len(persisted))
	for _, it := range persisted {
		if it.ID == "" {
			continue
		}
		if _, seen := incoming[it.ID]; !seen {
			incoming[it.ID] = it
		}
	}

	known := make(map[string]bool, len(catalog))
	out := make([]models.Item, 0, len(catalog)+len(incoming))
	for _, def := range catalog {
		known[def.ID] = true
		merged := def
		if stored, ok := incoming[def.ID]; ok {
			merged.Done = stored.Done
			// A lock from either the catalog or the stored item holds.
			merged.Locked = def.Locked || stored.Locked
		}
		out = append(out, merged)
	}

	emitted := make(map[string]bool)
	for _, it := range persisted {
		if it.ID == "" || known[it.ID] || emitted[it.ID] {
			continue
		}
		emitted[it.ID] = true
		out = append(out, it)
	}
	return out
}

// NormalizeAccountItems merges persisted account items onto the default catalog.
func NormalizeAccountItems(persisted []models.Item) []models.Item {
	return NormalizeItems(defaultAccountItems, persisted)
}

// NormalizeDevReadMap produces a map with exactly the dev guide key set.
// Flags from the single-platform layout (pre, env, ...) are read as the
// PC flags when the prefixed key is missing.
func NormalizeDevReadMap(m models.ReadMap) models.ReadMap {
	out := DefaultDevReadMap()
	pcPrefix := devPlatformPrefixes[models.PlatformPC] + "_"
	for key := range out {
		if v, ok := m[key]; ok {
			out[key] = v
			continue
		}
		if legacy, ok := strings.CutPrefix(key, pcPrefix); ok {
			if v, ok := m[legacy]; ok {
				out[key] = v
			}
		}
	}
	return out
}

// NormalizeGuideReadMap produces a map with exactly the tools/workflow key set.
func NormalizeGuideReadMap(m models.ReadMap) models.ReadMap {
	out := DefaultGuideReadMap()
	for key := range out {
		out[key] = m[key]
	}
	return out
}

// NormalizeUserName returns the trimmed stored name, or the default when
// it is blank. Length is only enforced on input, not on stored data.
func NormalizeUserName(name string) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	return DefaultUserName
}

// NormalizeSnapshot returns the state described by a remote or persisted
// snapshot, normalized against the current catalog.
func NormalizeSnapshot(s models.Snapshot) models.State {
	return models.State{
		UserName:     NormalizeUserName(s.UserName),
		Role:         models.DeploymentRole,
		AccountItems: NormalizeAccountItems(s.AccountItems),
		DevReadMap:   NormalizeDevReadMap(s.DevReadMap),
		GuideReadMap: NormalizeGuideReadMap(s.GuideFlags()),
		UpdatedAt:    s.UpdatedAt,
	}
}

// ApplyRemoteSnapshot returns the state after accepting a remote snapshot
// over current. Guide flags the snapshot does not carry keep their
// current values; clients that predate them only send name, items and
// dev flags.
func ApplyRemoteSnapshot(current models.State, s models.Snapshot) models.State {
	next := NormalizeSnapshot(s)
	carried := s.GuideFlags()
	for _, key := range GuideReadKeys() {
		if _, ok := carried[key]; !ok {
			next.GuideReadMap[key] = current.GuideReadMap[key]
		}
	}
	return next
}
