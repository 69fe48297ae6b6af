package progress

// LevelSummary is one level's completion as shown in navigation.
type LevelSummary struct {
	LevelID   string `json:"levelId"`
	Badge     string `json:"badge"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Percent   int    `json:"percent"`
	Earned    bool   `json:"earned"`
}

// Summary is a consistent snapshot for headers and the dev API.
type Summary struct {
	Record       Record         `json:"record"`
	Overall      int            `json:"overall"`
	CurrentBadge string         `json:"currentBadge,omitempty"`
	Completed    int            `json:"completed"`
	Total        int            `json:"total"`
	Levels       []LevelSummary `json:"levels"`
	UserID       string         `json:"userId,omitempty"`
}

// Summary computes every figure from a single read of the record.
func (s *Store) Summary() Summary {
	s.mu.Lock()
	rec := s.loadLocked().Clone()
	userID := s.userID
	s.mu.Unlock()

	out := Summary{Record: rec, Total: s.catalog.TotalLessons(), UserID: userID}
	for _, lv := range s.catalog.Levels {
		ls := LevelSummary{LevelID: lv.ID, Badge: lv.Badge, Total: len(lv.Lessons)}
		for _, lesson := range lv.Lessons {
			if rec.Has(lesson.ID) {
				ls.Completed++
			}
		}
		ls.Percent = percent(ls.Completed, ls.Total)
		ls.Earned = ls.Total > 0 && ls.Completed == ls.Total
		out.Completed += ls.Completed
		out.Levels = append(out.Levels, ls)
	}
	out.Overall = percent(out.Completed, out.Total)
	if n := len(rec.EarnedBadges); n > 0 {
		out.CurrentBadge = rec.EarnedBadges[n-1]
	}
	return out
}
