package app

import (
	"context"
	"errors"
	"time"

	"academy/internal/auth"
	"academy/internal/ui"
)

const authTimeout = 30 * time.Second

func (a *App) OnHome() {
	a.setLocation(ui.ScreenHome, "", "")
	a.view.SetHome(a.homeState())
	a.view.SetScreen(ui.ScreenHome)
}

func (a *App) OnContinue() {
	ref := a.continueTarget()
	if ref == nil {
		a.view.FlashStatus("Every lesson is complete. Pick any lesson to review it.")
		return
	}
	a.OnOpenLesson(ref.LevelID, ref.LessonID)
}

func (a *App) OnOpenLevel(levelID string) {
	st, ok := a.levelState(levelID)
	if !ok {
		a.view.FlashStatus("Level not found: " + levelID)
		return
	}
	a.setLocation(ui.ScreenLevel, levelID, "")
	a.view.SetLevel(st)
	a.view.SetScreen(ui.ScreenLevel)
}

func (a *App) OnOpenLesson(levelID, lessonID string) {
	st, ok := a.lessonState(levelID, lessonID)
	if !ok {
		a.view.FlashStatus("Lesson not found: " + lessonID)
		return
	}
	a.setLocation(ui.ScreenLesson, levelID, lessonID)
	a.recordVisit(levelID, lessonID)
	a.logger.Debug("app.lesson_opened", map[string]any{"level": levelID, "lesson": lessonID})
	a.view.SetLesson(st)
	a.view.SetScreen(ui.ScreenLesson)
}

// OnToggleLessonComplete flips the lesson. The store's change notification
// refreshes every screen; only the status line is set here.
func (a *App) OnToggleLessonComplete(levelID, lessonID string) {
	before := a.progress.Load()
	rec := a.progress.ToggleLessonComplete(lessonID)
	switch {
	case !rec.Has(lessonID):
		a.view.FlashStatus("Marked as not complete")
	case len(rec.EarnedBadges) > len(before.EarnedBadges):
		a.view.FlashStatus("Badge earned: " + newBadge(before.EarnedBadges, rec.EarnedBadges))
	default:
		a.view.FlashStatus("Lesson complete")
	}
	a.logger.Info("app.lesson_toggled", map[string]any{"level": levelID, "lesson": lessonID, "complete": rec.Has(lessonID)})
}

func newBadge(before, after []string) string {
	had := make(map[string]bool, len(before))
	for _, b := range before {
		had[b] = true
	}
	for _, b := range after {
		if !had[b] {
			return b
		}
	}
	return ""
}

// OnNextLesson finishes the current lesson and moves on. Marking is add-only,
// so leaving an already completed lesson changes nothing.
func (a *App) OnNextLesson(levelID, lessonID string) {
	badge := a.finishLesson(lessonID)
	_, next := a.catalog.Adjacent(levelID, lessonID)
	if next == nil {
		a.OnHome()
		a.view.FlashStatus("You reached the end of the course.")
		return
	}
	a.OnOpenLesson(next.LevelID, next.LessonID)
	if badge != "" {
		a.view.FlashStatus("Badge earned: " + badge)
	}
}

// finishLesson marks lessonID complete and returns the badge it earned, if
// any.
func (a *App) finishLesson(lessonID string) string {
	if !a.catalog.Contains(lessonID) {
		return ""
	}
	before := a.progress.Load()
	if before.Has(lessonID) {
		return ""
	}
	rec := a.progress.MarkLessonComplete(lessonID)
	a.logger.Info("app.lesson_finished", map[string]any{"lesson": lessonID})
	return newBadge(before.EarnedBadges, rec.EarnedBadges)
}

func (a *App) OnPrevLesson(levelID, lessonID string) {
	prev, _ := a.catalog.Adjacent(levelID, lessonID)
	if prev == nil {
		return
	}
	a.OnOpenLesson(prev.LevelID, prev.LessonID)
}

func (a *App) OnCheatSheet() {
	a.setLocation(ui.ScreenCheatSheet, "", "")
	a.view.SetScreen(ui.ScreenCheatSheet)
}

func (a *App) OnResetProgress() {
	a.progress.Reset()
	a.logger.Info("app.progress_reset", map[string]any{"user": a.progress.UserID()})
	a.view.FlashStatus("Progress reset")
}

func (a *App) OnSignIn(email string) {
	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()
	err := a.gate.SignIn(ctx, email)
	switch {
	case err == nil:
		a.view.FlashStatus("Check your email for a sign-in code")
	case errors.Is(err, auth.ErrUnavailable):
		a.view.FlashStatus("Sign-in is not configured")
	default:
		a.view.FlashStatus("Could not send code: " + err.Error())
	}
}

func (a *App) OnVerifyCode(email, code string) {
	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()
	if err := a.gate.Verify(ctx, email, code); err != nil {
		a.view.FlashStatus("Sign-in failed: " + err.Error())
	}
}

func (a *App) OnSignOut() {
	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()
	if err := a.gate.SignOut(ctx); err != nil {
		a.logger.Warn("app.sign_out_failed", map[string]any{"error": err.Error()})
	}
	a.view.FlashStatus("Signed out")
}

func (a *App) OnQuit() {
	a.logger.Info("app.quit", nil)
	a.view.Stop()
}
