package ui

import (
	"time"

	"academy/internal/catalog"
)

// Controller receives learner intents. The view calls it on its own
// goroutine, never from inside Update.
type Controller interface {
	OnHome()
	OnContinue()
	OnOpenLevel(levelID string)
	OnOpenLesson(levelID, lessonID string)
	OnToggleLessonComplete(levelID, lessonID string)
	OnNextLesson(levelID, lessonID string)
	OnPrevLesson(levelID, lessonID string)
	OnCheatSheet()
	OnResetProgress()
	OnSignIn(email string)
	OnVerifyCode(email, code string)
	OnSignOut()
	OnQuit()
}

type View interface {
	Run() error
	Stop()
	SetController(Controller)
	SetScreen(screen Screen)
	SetHome(state HomeState)
	SetLevel(state LevelState)
	SetLesson(state LessonState)
	SetCheatSheet(blocks catalog.Blocks)
	SetAccount(state AccountState)
	SetSync(state SyncState)
	SetMenuOpen(open bool)
	SetSignInOpen(open bool)
	SetResetConfirmOpen(open bool)
	FlashStatus(msg string)
}

type Screen int

const (
	ScreenHome Screen = iota
	ScreenLevel
	ScreenLesson
	ScreenCheatSheet
)

func (s Screen) String() string {
	switch s {
	case ScreenHome:
		return "home"
	case ScreenLevel:
		return "level"
	case ScreenLesson:
		return "lesson"
	case ScreenCheatSheet:
		return "cheatsheet"
	default:
		return "unknown"
	}
}

type LayoutMode int

const (
	LayoutWide LayoutMode = iota
	LayoutMedium
	LayoutTooSmall
)

type HomeState struct {
	Title        string
	Overall      int
	Completed    int
	Total        int
	CurrentBadge string
	Levels       []LevelRow
	// Continue is where the learner picks up; nil once every lesson is done.
	Continue *LessonLink
}

type LevelRow struct {
	ID        string
	Number    int
	Title     string
	Subtitle  string
	Badge     string
	Percent   int
	Completed int
	Total     int
	Earned    bool
	Minutes   int
}

type LessonRow struct {
	ID       string
	Title    string
	Subtitle string
	Minutes  int
	Complete bool
}

type LevelState struct {
	Level   LevelRow
	Lessons []LessonRow
}

type LessonLink struct {
	LevelID  string
	LessonID string
	Title    string
}

// LessonState drives the lesson screen. Sections are rebuilt only when the
// lesson id changes, so progress updates keep widget state intact.
type LessonState struct {
	LevelID    string
	LevelTitle string
	Lesson     catalog.Lesson
	Position   int
	Count      int
	Complete   bool
	Prev       *LessonLink
	Next       *LessonLink
}

type AccountState struct {
	Available    bool
	Loading      bool
	SignedIn     bool
	Email        string
	Status       string
	PendingEmail string
	Error        string
}

type SyncState struct {
	Enabled    bool
	Pending    int
	Dropped    int
	LastSynced time.Time
	LastError  string
}
