package search

import (
	"regexp"
	"strings"
	"time"

	"github.com/tapestry-tools/tapestry/internal/models"
)

// FilterResult is the outcome of applying facets to a message set.
type FilterResult struct {
	Messages []models.Message

	// SourceFilterRelaxed is true when the source-id restriction was
	// dropped because it would have reduced a non-empty candidate set to
	// empty. Callers should surface this instead of treating the result
	// as a strict subset of the requested facets.
	SourceFilterRelaxed bool
}

// Filter applies vendor, role, date-range and source-set predicates to the
// message set. When matchText is true the query string is also matched
// locally (substring or regex); callers pass false when the backing store
// already performed the text match and only the remaining facets apply.
// relaxSources controls the stale-source escape hatch below.
func Filter(msgs []models.Message, f models.SearchFacets, matchText, relaxSources bool) FilterResult {
	match := textMatcher(f, matchText)

	base := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		if !facetMatch(m, f) {
			continue
		}
		if match != nil && !match(m) {
			continue
		}
		base = append(base, m)
	}

	if len(f.SourceIDs) == 0 {
		return FilterResult{Messages: base}
	}

	wanted := make(map[string]bool, len(f.SourceIDs))
	for _, id := range f.SourceIDs {
		wanted[id] = true
	}

	restricted := make([]models.Message, 0, len(base))
	for _, m := range base {
		if wanted[m.SourceID] {
			restricted = append(restricted, m)
		}
	}

	// Escape hatch for stale provider/source mappings: when the source
	// restriction alone would hide every remaining message, rerun without
	// it and flag the widening to the caller.
	if relaxSources && len(restricted) == 0 && len(base) > 0 {
		return FilterResult{Messages: base, SourceFilterRelaxed: true}
	}

	return FilterResult{Messages: restricted}
}

// facetMatch applies the non-text, non-source predicates.
func facetMatch(m models.Message, f models.SearchFacets) bool {
	if f.Vendor != "" && f.Vendor != "all" && m.Vendor != f.Vendor {
		return false
	}
	if f.Role != "" && f.Role != "any" && m.Role != f.Role {
		return false
	}

	if f.From != nil || f.To != nil {
		// A date bound excludes messages whose timestamp is unknown.
		if !models.ValidTimestamp(m.CreatedAt) {
			return false
		}
		ts := m.Time()
		if f.From != nil && ts.Before(f.From.UTC().Truncate(24*time.Hour)) {
			return false
		}
		if f.To != nil {
			// End date is inclusive of that whole day.
			end := f.To.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
			if !ts.Before(end) {
				return false
			}
		}
	}

	return true
}

// textMatcher builds the query predicate, or nil when no local text match
// applies. A regex that fails to compile degrades to a literal
// case-insensitive substring match rather than failing the whole query.
func textMatcher(f models.SearchFacets, matchText bool) func(models.Message) bool {
	if !matchText || f.Query == "" {
		return nil
	}

	if f.Regex {
		if re, err := regexp.Compile("(?i)" + f.Query); err == nil {
			return func(m models.Message) bool {
				if re.MatchString(m.Text) {
					return true
				}
				return f.TitleBody && re.MatchString(m.Title)
			}
		}
	}

	needle := strings.ToLower(f.Query)
	return func(m models.Message) bool {
		if strings.Contains(strings.ToLower(m.Text), needle) {
			return true
		}
		return f.TitleBody && strings.Contains(strings.ToLower(m.Title), needle)
	}
}
