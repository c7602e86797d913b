package store

import "strings"

// ftsQuery converts a user query to FTS5 syntax. Quoted or wildcard queries
// pass through (with a balance check); explicit boolean operators are
// normalized to uppercase; plain multi-word queries become an implicit AND.
func ftsQuery(userQuery string) string {
	query := strings.TrimSpace(userQuery)
	if query == "" {
		return `""`
	}

	if strings.ContainsAny(query, `"*`) {
		if strings.Count(query, `"`)%2 != 0 {
			// Unbalanced quotes: escape the whole query as a phrase.
			return `"` + strings.ReplaceAll(query, `"`, `""`) + `"`
		}
		return query
	}

	upper := strings.ToUpper(query)
	if strings.Contains(upper, " AND ") || strings.Contains(upper, " OR ") || strings.Contains(upper, " NOT ") {
		query = strings.ReplaceAll(query, " and ", " AND ")
		query = strings.ReplaceAll(query, " or ", " OR ")
		query = strings.ReplaceAll(query, " not ", " NOT ")
		return query
	}

	if strings.Contains(query, " ") {
		return strings.Join(strings.Fields(query), " AND ")
	}

	return query
}
