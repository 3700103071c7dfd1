// Package catalog filters and orders the published course collection.
//
// Apply is a pure function of its inputs: it never touches storage and
// returns the whole matching set (no pagination).
package catalog

import (
	"errors"
	"slices"
	"strings"

	"formations/internal/domain/course"
	"formations/internal/domain/review"
)

// Sort keys
type Sort string

const (
	SortRelevance Sort = "relevance" // input order
	SortRecent    Sort = "recent"
	SortRating    Sort = "rating"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
)

// ErrInvalidSort is returned by ParseSort for an unknown key.
var ErrInvalidSort = errors.New("sort must be one of: relevance, recent, rating, price_asc, price_desc")

// ParseSort converts raw input into a Sort. Empty input means relevance.
func ParseSort(raw string) (Sort, error) {
	switch s := Sort(strings.ToLower(strings.TrimSpace(raw))); s {
	case "":
		return SortRelevance, nil
	case SortRelevance, SortRecent, SortRating, SortPriceAsc, SortPriceDesc:
		return s, nil
	}
	return "", ErrInvalidSort
}

// Criteria is one filter/sort configuration of the catalog page.
// Empty fields are inactive.
type Criteria struct {
	Query      string
	Domain     string
	Modality   string
	Funding    string
	Population string
	City       string
	Sort       Sort
}

// HasFilters reports whether any filter is active. Sort is not a filter.
func (c Criteria) HasFilters() bool {
	return c.Query != "" || c.Domain != "" || c.Modality != "" || c.Funding != "" ||
		c.Population != "" || c.City != ""
}

// Entry is a course with its rating aggregate.
type Entry struct {
	Course course.Course
	Rating review.Summary
}

// Result is the visible catalog for one Criteria.
type Result struct {
	Entries  []Entry
	Criteria Criteria
	// Empty drives the "no results" message and its "clear all filters" action.
	Empty bool
}

// Search applies c to entries and wraps the outcome.
func Search(entries []Entry, c Criteria) Result {
	out := Apply(entries, c)
	return Result{Entries: out, Criteria: c, Empty: len(out) == 0}
}

// Apply returns the entries matching every active filter of c, ordered by c.Sort.
// PRE: entries are in relevance order (manual affiche order, then newest)
// POST: entries is not modified; ties keep their input order
// INVARIANT: Apply(Apply(x, c), c) == Apply(x, c)
func Apply(entries []Entry, c Criteria) []Entry {
	m := newMatcher(c)
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if m.matches(&e.Course) {
			out = append(out, e)
		}
	}
	sortEntries(out, c.Sort)
	return out
}

// matcher holds the folded criteria so each course is compared without re-folding.
type matcher struct {
	query, domain, modality, funding, population, city string
}

func newMatcher(c Criteria) matcher {
	return matcher{
		query:      fold(c.Query),
		domain:     fold(c.Domain),
		modality:   fold(c.Modality),
		funding:    fold(c.Funding),
		population: fold(c.Population),
		city:       fold(c.City),
	}
}

func (m matcher) matches(c *course.Course) bool {
	if m.query != "" && !matchesText(c, m.query) {
		return false
	}
	if m.domain != "" && fold(c.Domain) != m.domain {
		return false
	}
	if m.modality != "" && !hasModality(c, m.modality) {
		return false
	}
	if m.funding != "" && !containsFolded(c.Funding, m.funding) {
		return false
	}
	if m.population != "" && !containsFolded(c.Populations, m.population) {
		return false
	}
	if m.city != "" && !anyContains(c.Places(), m.city) {
		return false
	}
	return true
}

// matchesText is the free-text OR over title, subtitle, domain, tags and session places.
func matchesText(c *course.Course, q string) bool {
	if strings.Contains(fold(c.Title), q) || strings.Contains(fold(c.Subtitle), q) ||
		strings.Contains(fold(c.Domain), q) {
		return true
	}
	if anyContains(c.Keywords, q) || anyContains(c.Populations, q) {
		return true
	}
	for _, s := range c.Sessions {
		for _, p := range s.Parts {
			if strings.Contains(fold(p.Place), q) {
				return true
			}
		}
	}
	return false
}

// hasModality matches the course modality or the modality of any session part.
func hasModality(c *course.Course, want string) bool {
	if fold(c.Modality) == want {
		return true
	}
	for _, s := range c.Sessions {
		for _, p := range s.Parts {
			if fold(p.Modality) == want {
				return true
			}
		}
	}
	return false
}

func sortEntries(entries []Entry, key Sort) {
	switch key {
	case SortRecent:
		slices.SortStableFunc(entries, func(a, b Entry) int {
			return b.Course.CreatedAt.Compare(a.Course.CreatedAt)
		})
	case SortRating:
		slices.SortStableFunc(entries, func(a, b Entry) int {
			return compareFloat(b.Rating.Average, a.Rating.Average)
		})
	case SortPriceAsc:
		slices.SortStableFunc(entries, func(a, b Entry) int { return comparePrice(a, b, false) })
	case SortPriceDesc:
		slices.SortStableFunc(entries, func(a, b Entry) int { return comparePrice(a, b, true) })
	}
}

// comparePrice orders by lowest price variant; unpriced courses sort last either way.
func comparePrice(a, b Entry, desc bool) int {
	pa, okA := a.Course.LowestPriceCents()
	pb, okB := b.Course.LowestPriceCents()
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return 1
	case !okB:
		return -1
	}
	if desc {
		pa, pb = pb, pa
	}
	return pa - pb
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsFolded(values []string, want string) bool {
	for _, v := range values {
		if fold(v) == want {
			return true
		}
	}
	return false
}

func anyContains(values []string, sub string) bool {
	for _, v := range values {
		if strings.Contains(fold(v), sub) {
			return true
		}
	}
	return false
}
