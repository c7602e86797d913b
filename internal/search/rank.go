package search

import (
	"sort"

	"github.com/tapestry-tools/tapestry/internal/models"
)

// Order sorts a filtered message set into a total, deterministic order. Two
// calls with identical inputs always yield identical output; the paginator
// depends on this across re-renders.
//
// With external ranks present: rank descending, ties by createdAt
// ascending, then uid ascending. Without ranks: createdAt ascending, ties
// by uid ascending. Messages missing from a non-empty rank map sort after
// every ranked message.
func Order(msgs []models.Message, ranks map[string]float64) []models.Message {
	out := append([]models.Message(nil), msgs...)

	if len(ranks) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			ri, iok := ranks[out[i].UID]
			rj, jok := ranks[out[j].UID]
			if iok != jok {
				return iok
			}
			if iok && ri != rj {
				return ri > rj
			}
			return chronoLess(out[i], out[j])
		})
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		return chronoLess(out[i], out[j])
	})
	return out
}

func chronoLess(a, b models.Message) bool {
	if a.CreatedAt != b.CreatedAt {
		return a.CreatedAt < b.CreatedAt
	}
	return a.UID < b.UID
}
