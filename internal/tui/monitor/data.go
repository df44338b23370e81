package monitor

import (
	"github.com/marcus/onboard/internal/checklist"
	"github.com/marcus/onboard/internal/models"
)

// Row is one selectable checklist line
type Row struct {
	SectionID    string
	SectionTitle string
	Item         models.Item
	First        bool // first row of its section; the header is drawn above it
	Progress     models.Progress
}

// BuildRows flattens sections into cursor rows, carrying each section's
// progress on its rows for header rendering.
func BuildRows(sections []models.Section) []Row {
	var rows []Row
	for _, s := range sections {
		p := checklist.SectionProgress(s)
		for i, it := range s.Items {
			rows = append(rows, Row{
				SectionID:    s.ID,
				SectionTitle: s.Title,
				Item:         it,
				First:        i == 0,
				Progress:     p,
			})
		}
	}
	return rows
}

// overall returns progress across every row
func overall(rows []Row) models.Progress {
	var s models.Section
	for _, r := range rows {
		s.Items = append(s.Items, r.Item)
	}
	return checklist.SectionProgress(s)
}
