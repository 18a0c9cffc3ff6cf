package dircache

import (
	"slices"

	"github.com/starford/folio/internal/models"
)

// AllByDate returns All ordered by date, oldest first unless desc is set.
func (c *Cache) AllByDate(desc bool) ([]models.Article, error) {
	all, err := c.All()
	if err != nil {
		return nil, err
	}
	return SortByDate(all, desc), nil
}

// SortByDate returns a copy of articles stably sorted by parsed date.
//
// Descending order reverses the ascending sequence group by group: articles
// sharing a date keep the relative order they had in the input, in both
// directions.
func SortByDate(articles []models.Article, desc bool) []models.Article {
	sorted := slices.Clone(articles)
	slices.SortStableFunc(sorted, func(a, b models.Article) int {
		return a.Time.Compare(b.Time)
	})
	if !desc {
		return sorted
	}

	out := make([]models.Article, 0, len(sorted))
	end := len(sorted)
	for end > 0 {
		start := end - 1
		for start > 0 && sorted[start-1].Time.Equal(sorted[end-1].Time) {
			start--
		}
		out = append(out, sorted[start:end]...)
		end = start
	}
	return out
}
