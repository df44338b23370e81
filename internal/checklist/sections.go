package checklist

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/marcus/onboard/internal/models"
)

// BuildSections combines the static catalog with live progress. The dev
// section reads its flags under the given platform's prefix; tools and
// workflow items count as done once their guide has been marked read.
// Inputs are never mutated and nil maps read as all-unread.
func BuildSections(accountItems []models.Item, devRead, guideRead models.ReadMap, platform models.Platform) []models.Section {
	devItems := make([]models.Item, 0, len(devReadItems)+len(devExtraItems))
	for _, it := range devReadItems {
		devItems = append(devItems, models.Item{
			ID:         it.id,
			Title:      it.title,
			ETAMinutes: it.eta,
			Done:       devRead[DevReadKey(platform, it.topic)],
		})
	}
	devItems = append(devItems, models.CloneItems(devExtraItems)...)

	return []models.Section{
		{ID: SectionAccounts, Title: sectionTitles[SectionAccounts], Items: models.CloneItems(accountItems)},
		{ID: SectionDev, Title: sectionTitles[SectionDev], Items: devItems},
		{ID: SectionTools, Title: sectionTitles[SectionTools], Items: markAll(toolItems, guideRead[GuideTools])},
		{ID: SectionWorkflow, Title: sectionTitles[SectionWorkflow], Items: markAll(workflowItems, guideRead[GuideWorkflow])},
	}
}

func markAll(items []models.Item, done bool) []models.Item {
	out := models.CloneItems(items)
	if done {
		for i := range out {
			out[i].Done = true
		}
	}
	return out
}

// SectionProgress counts done items. Pct is rounded to the nearest integer
// and is 0 for an empty section.
func SectionProgress(s models.Section) models.Progress {
	total := len(s.Items)
	done := 0
	for _, it := range s.Items {
		if it.Done {
			done++
		}
	}
	pct := 0
	if total > 0 {
		pct = int(math.Round(float64(done) / float64(total) * 100))
	}
	return models.Progress{Total: total, Done: done, Pct: pct}
}

// OverallProgress sums progress across all sections.
func OverallProgress(sections []models.Section) models.Progress {
	var merged models.Section
	for _, s := range sections {
		merged.Items = append(merged.Items, s.Items...)
	}
	return SectionProgress(merged)
}

// PickNextAction returns the first open, unlocked item scanning sections
// and their items in catalog order. Earlier sections take priority.
func PickNextAction(sections []models.Section) *models.NextAction {
	for _, s := range sections {
		for _, it := range s.Items {
			if !it.Done && !it.Locked {
				return &models.NextAction{Section: s, Item: it}
			}
		}
	}
	return nil
}

// ValidateUserName trims name and reports whether it is an acceptable
// display name (non-empty, at most MaxUserNameLength runes).
func ValidateUserName(name string) (string, bool) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", false
	}
	if utf8.RuneCountInString(trimmed) > MaxUserNameLength {
		return trimmed, false
	}
	return trimmed, true
}

// IsOnboarded reports whether the user has replaced the default name.
func IsOnboarded(userName string) bool {
	return userName != "" && userName != DefaultUserName
}

// ReadKeyFor returns the read flag backing a derived item: the platform's
// dev flag for a dev guide item, or the guide flag for tools and workflow
// items. Account items and catalog-only dev items have no flag.
func ReadKeyFor(sectionID, itemID string, platform models.Platform) (string, bool) {
	switch sectionID {
	case SectionDev:
		for _, it := range devReadItems {
			if it.id == itemID {
				return DevReadKey(platform, it.topic), true
			}
		}
	case SectionTools:
		return GuideTools, true
	case SectionWorkflow:
		return GuideWorkflow, true
	}
	return "", false
}
