package devtools

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"academy/internal/catalog"
	"academy/internal/progress"
)

const eventProgress = "progress-update"

type levelView struct {
	ID        string       `json:"id"`
	Number    int          `json:"number"`
	Title     string       `json:"title"`
	Subtitle  string       `json:"subtitle,omitempty"`
	Badge     string       `json:"badge"`
	Minutes   int          `json:"minutes"`
	Completed int          `json:"completed"`
	Total     int          `json:"total"`
	Percent   int          `json:"percent"`
	Earned    bool         `json:"earned"`
	Lessons   []lessonView `json:"lessons,omitempty"`
}

type lessonView struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Minutes  int    `json:"minutes"`
	Complete bool   `json:"complete"`
}

type identityView struct {
	UserID   string    `json:"userId,omitempty"`
	Email    string    `json:"email,omitempty"`
	SignedIn bool      `json:"signedIn"`
	Loading  bool      `json:"loading"`
	Sync     *syncView `json:"sync,omitempty"`
}

type syncView struct {
	Pending    int        `json:"pending"`
	Dropped    int        `json:"dropped"`
	LastSynced *time.Time `json:"lastSynced,omitempty"`
	LastError  string     `json:"lastError,omitempty"`
}

func (s *Server) getProgress(c *gin.Context) {
	c.JSON(http.StatusOK, s.progress.Summary())
}

func (s *Server) resetProgress(c *gin.Context) {
	s.progress.Reset()
	s.logger.Info("dev_api.progress_reset", nil)
	c.JSON(http.StatusOK, s.progress.Summary())
}

func (s *Server) listLevels(c *gin.Context) {
	sum := s.progress.Summary()
	out := make([]levelView, 0, len(s.catalog.Levels))
	for i, lv := range s.catalog.Levels {
		out = append(out, s.levelView(lv, sum.Levels[i], false))
	}
	c.JSON(http.StatusOK, gin.H{"title": s.catalog.Title, "levels": out})
}

func (s *Server) getLevel(c *gin.Context) {
	id := c.Param("levelID")
	sum := s.progress.Summary()
	for i, lv := range s.catalog.Levels {
		if lv.ID == id {
			c.JSON(http.StatusOK, s.levelView(lv, sum.Levels[i], true))
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "unknown level " + id})
}

func (s *Server) levelView(lv catalog.Level, ls progress.LevelSummary, withLessons bool) levelView {
	v := levelView{
		ID:        lv.ID,
		Number:    lv.Number,
		Title:     lv.Title,
		Subtitle:  lv.Subtitle,
		Badge:     lv.Badge,
		Minutes:   lv.Minutes(),
		Completed: ls.Completed,
		Total:     ls.Total,
		Percent:   ls.Percent,
		Earned:    ls.Earned,
	}
	if !withLessons {
		return v
	}
	v.Lessons = make([]lessonView, 0, len(lv.Lessons))
	for _, lesson := range lv.Lessons {
		v.Lessons = append(v.Lessons, lessonView{
			ID:       lesson.ID,
			Title:    lesson.Title,
			Subtitle: lesson.Subtitle,
			Minutes:  lesson.EstimatedMinutes,
			Complete: s.progress.IsLessonComplete(lesson.ID),
		})
	}
	return v
}

func (s *Server) toggleLesson(c *gin.Context) {
	id, ok := s.lessonParam(c)
	if !ok {
		return
	}
	rec := s.progress.ToggleLessonComplete(id)
	s.logger.Info("dev_api.lesson_toggled", map[string]any{"lesson": id, "complete": rec.Has(id)})
	c.JSON(http.StatusOK, gin.H{"lessonId": id, "complete": rec.Has(id), "record": rec})
}

func (s *Server) completeLesson(c *gin.Context) {
	id, ok := s.lessonParam(c)
	if !ok {
		return
	}
	rec := s.progress.MarkLessonComplete(id)
	s.logger.Info("dev_api.lesson_completed", map[string]any{"lesson": id})
	c.JSON(http.StatusOK, gin.H{"lessonId": id, "complete": true, "record": rec})
}

// lessonParam rejects ids the catalog does not know.
func (s *Server) lessonParam(c *gin.Context) (string, bool) {
	id := c.Param("lessonID")
	if !s.catalog.Contains(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown lesson " + id})
		return "", false
	}
	return id, true
}

func (s *Server) getIdentity(c *gin.Context) {
	var v identityView
	if s.accounts != nil {
		st := s.accounts.State()
		v = identityView{UserID: st.UserID, Email: st.Email, SignedIn: st.SignedIn(), Loading: st.Loading}
	}
	if s.syncer != nil {
		st := s.syncer.Status()
		sv := &syncView{Pending: st.Pending, Dropped: st.Dropped, LastError: st.LastError}
		if !st.LastSynced.IsZero() {
			t := st.LastSynced
			sv.LastSynced = &t
		}
		v.Sync = sv
	}
	c.JSON(http.StatusOK, v)
}

// streamEvents sends the current summary, then one event per change until
// the client goes away or the server closes.
func (s *Server) streamEvents(c *gin.Context) {
	cl := s.hub.add()
	defer s.hub.remove(cl)

	c.Header("X-Accel-Buffering", "no")
	c.SSEvent(eventProgress, s.progress.Summary())
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-cl.done:
			return false
		case sum := <-cl.outbound:
			c.SSEvent(eventProgress, sum)
			return true
		}
	})
}
