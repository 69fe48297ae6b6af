package progress

import (
	"strings"

	"academy/internal/catalog"
)

// StorageKey is the local key the serialized record lives under.
const StorageKey = "claude-academy-progress"

// Record is one identity's completion state. EarnedBadges is derived from
// CompletedLessons and is never edited on its own.
type Record struct {
	CompletedLessons []string `json:"completedLessons"`
	EarnedBadges     []string `json:"earnedBadges"`
}

func Empty() Record {
	return Record{CompletedLessons: []string{}, EarnedBadges: []string{}}
}

func (r Record) Has(lessonID string) bool {
	for _, id := range r.CompletedLessons {
		if id == lessonID {
			return true
		}
	}
	return false
}

func (r Record) Clone() Record {
	return Record{
		CompletedLessons: append([]string{}, r.CompletedLessons...),
		EarnedBadges:     append([]string{}, r.EarnedBadges...),
	}
}

// dedupe keeps the first occurrence of every non-empty id.
func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Union returns remote followed by the local ids remote lacks.
func Union(remote, local []string) []string {
	return dedupe(append(append([]string{}, remote...), local...))
}

// Badges rescans the catalog in order and returns the badge of every level
// whose lessons are all in completed.
func Badges(c *catalog.Catalog, completed []string) []string {
	out := []string{}
	if c == nil {
		return out
	}
	done := make(map[string]struct{}, len(completed))
	for _, id := range completed {
		done[id] = struct{}{}
	}
	for _, lv := range c.Levels {
		if len(lv.Lessons) == 0 {
			continue
		}
		all := true
		for _, ls := range lv.Lessons {
			if _, ok := done[ls.ID]; !ok {
				all = false
				break
			}
		}
		if all {
			out = append(out, lv.Badge)
		}
	}
	return out
}

// derive builds a record from a completed set with badges recomputed.
func derive(c *catalog.Catalog, completed []string) Record {
	ids := dedupe(completed)
	return Record{CompletedLessons: ids, EarnedBadges: Badges(c, ids)}
}
