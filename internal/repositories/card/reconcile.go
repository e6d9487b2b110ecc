package card

import "github.com/Ramsey-B/fern/pkg/models"

// SeriesPlan is the reconciliation of submitted series against a card's
// current series: what to insert, what to update, and which current series
// were dropped. Indexes are already resolved on the Insert and Update lists.
type SeriesPlan struct {
	Insert    []models.SeriesDefinition
	Update    []models.SeriesDefinition
	DeleteIDs []int64
}

// ReconcileSeries partitions the submitted series. A series without an id, or
// with an id that does not belong to the card, is new; a current series whose
// id was not resubmitted is deleted. A missing index defaults to the series'
// position in the submitted list.
func ReconcileSeries(current []models.Series, submitted []models.SeriesDefinition) SeriesPlan {
	currentIDs := make(map[int64]bool, len(current))
	for _, s := range current {
		currentIDs[s.SeriesID] = true
	}

	plan := SeriesPlan{}
	kept := make(map[int64]bool, len(submitted))
	for i, s := range submitted {
		if s.Index == nil {
			idx := i
			s.Index = &idx
		}
		if s.SeriesID != nil && currentIDs[*s.SeriesID] {
			kept[*s.SeriesID] = true
			plan.Update = append(plan.Update, s)
			continue
		}
		s.SeriesID = nil
		plan.Insert = append(plan.Insert, s)
	}

	for _, s := range current {
		if !kept[s.SeriesID] {
			plan.DeleteIDs = append(plan.DeleteIDs, s.SeriesID)
		}
	}
	return plan
}
