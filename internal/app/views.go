package app

import (
	"context"

	"academy/internal/auth"
	"academy/internal/catalog"
	"academy/internal/progress"
	"academy/internal/ui"
)

const defaultTitle = "Claude Code Academy"

func (a *App) homeState() ui.HomeState {
	sum := a.progress.Summary()
	st := ui.HomeState{
		Title:        a.catalog.Title,
		Overall:      sum.Overall,
		Completed:    sum.Completed,
		Total:        sum.Total,
		CurrentBadge: sum.CurrentBadge,
	}
	if st.Title == "" {
		st.Title = defaultTitle
	}
	for i, lv := range a.catalog.Levels {
		st.Levels = append(st.Levels, levelRow(lv, sum.Levels[i]))
	}
	if ref := a.continueTarget(); ref != nil {
		st.Continue = a.link(ref)
	}
	return st
}

func levelRow(lv catalog.Level, ls progress.LevelSummary) ui.LevelRow {
	return ui.LevelRow{
		ID:        lv.ID,
		Number:    lv.Number,
		Title:     lv.Title,
		Subtitle:  lv.Subtitle,
		Badge:     lv.Badge,
		Percent:   ls.Percent,
		Completed: ls.Completed,
		Total:     ls.Total,
		Earned:    ls.Earned,
		Minutes:   lv.Minutes(),
	}
}

func (a *App) levelState(levelID string) (ui.LevelState, bool) {
	sum := a.progress.Summary()
	for i, lv := range a.catalog.Levels {
		if lv.ID != levelID {
			continue
		}
		st := ui.LevelState{Level: levelRow(lv, sum.Levels[i])}
		for _, lesson := range lv.Lessons {
			st.Lessons = append(st.Lessons, ui.LessonRow{
				ID:       lesson.ID,
				Title:    lesson.Title,
				Subtitle: lesson.Subtitle,
				Minutes:  lesson.EstimatedMinutes,
				Complete: sum.Record.Has(lesson.ID),
			})
		}
		return st, true
	}
	return ui.LevelState{}, false
}

func (a *App) lessonState(levelID, lessonID string) (ui.LessonState, bool) {
	lv, ok := a.catalog.LevelByID(levelID)
	if !ok {
		return ui.LessonState{}, false
	}
	lesson, ok := a.catalog.LessonByID(levelID, lessonID)
	if !ok {
		return ui.LessonState{}, false
	}
	st := ui.LessonState{
		LevelID:    levelID,
		LevelTitle: lv.Title,
		Lesson:     lesson,
		Count:      len(lv.Lessons),
		Complete:   a.progress.IsLessonComplete(lessonID),
	}
	for i, ls := range lv.Lessons {
		if ls.ID == lessonID {
			st.Position = i + 1
			break
		}
	}
	prev, next := a.catalog.Adjacent(levelID, lessonID)
	st.Prev = a.link(prev)
	st.Next = a.link(next)
	return st, true
}

func (a *App) link(ref *catalog.Ref) *ui.LessonLink {
	if ref == nil {
		return nil
	}
	lesson, ok := a.catalog.LessonByID(ref.LevelID, ref.LessonID)
	if !ok {
		return nil
	}
	return &ui.LessonLink{LevelID: ref.LevelID, LessonID: ref.LessonID, Title: lesson.Title}
}

// continueTarget is the first incomplete lesson at or after the last one
// visited, wrapping around the course. It is nil once everything is done.
func (a *App) continueTarget() *catalog.Ref {
	order := a.catalog.Order()
	if len(order) == 0 {
		return nil
	}
	start := 0
	if a.local != nil {
		ctx, cancel := context.WithTimeout(context.Background(), localTimeout)
		v, err := a.local.LastVisit(ctx)
		cancel()
		if err != nil {
			a.logger.Debug("app.last_visit_failed", map[string]any{"error": err.Error()})
		}
		if v != nil {
			for i, ref := range order {
				if ref.LessonID == v.LessonID {
					start = i
					break
				}
			}
		}
	}
	rec := a.progress.Load()
	for k := range order {
		ref := order[(start+k)%len(order)]
		if !rec.Has(ref.LessonID) {
			return &ref
		}
	}
	return nil
}

func accountState(st auth.State, available bool) ui.AccountState {
	return ui.AccountState{
		Available:    available,
		Loading:      st.Loading,
		SignedIn:     st.SignedIn(),
		Email:        st.Email,
		Status:       string(st.Status),
		PendingEmail: st.PendingEmail,
		Error:        st.Err,
	}
}

func (a *App) syncState() ui.SyncState {
	if a.syncer == nil {
		return ui.SyncState{}
	}
	st := a.syncer.Status()
	return ui.SyncState{
		Enabled:    true,
		Pending:    st.Pending,
		Dropped:    st.Dropped,
		LastSynced: st.LastSynced,
		LastError:  st.LastError,
	}
}
