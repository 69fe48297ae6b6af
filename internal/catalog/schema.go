package catalog

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	CatalogKind            = "catalog"
	LessonKind             = "lesson"
	SupportedSchemaVersion = 1
)

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

type Catalog struct {
	Kind          string  `yaml:"kind"`
	SchemaVersion int     `yaml:"schema_version"`
	Title         string  `yaml:"title"`
	Levels        []Level `yaml:"levels"`

	CheatSheet Blocks `yaml:"-"`

	order []Ref
	index map[string]int
}

type Level struct {
	ID       string   `yaml:"id"`
	Number   int      `yaml:"number"`
	Title    string   `yaml:"title"`
	Subtitle string   `yaml:"subtitle"`
	Badge    string   `yaml:"badge"`
	Lessons  []Lesson `yaml:"lessons"`
}

type Lesson struct {
	ID               string `yaml:"id"`
	Title            string `yaml:"title"`
	Subtitle         string `yaml:"subtitle"`
	EstimatedMinutes int    `yaml:"estimated_minutes"`

	LevelID string `yaml:"-"`
	Blocks  Blocks `yaml:"-"`
}

// LessonFile is the on-disk form of lessons/<id>.yaml.
type LessonFile struct {
	Kind          string `yaml:"kind"`
	SchemaVersion int    `yaml:"schema_version"`
	LessonID      string `yaml:"lesson_id"`
	Blocks        Blocks `yaml:"blocks"`
}

// Ref addresses a lesson inside its level.
type Ref struct {
	LevelID  string
	LessonID string
}

// New builds an indexed catalog from levels. Lessons are stamped with their
// level id.
func New(title string, levels []Level) (*Catalog, error) {
	c := &Catalog{
		Kind:          CatalogKind,
		SchemaVersion: SupportedSchemaVersion,
		Title:         title,
		Levels:        levels,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.reindex()
	return c, nil
}

func (c *Catalog) Validate() error {
	if c.Kind != CatalogKind {
		return fmt.Errorf("kind must be %q", CatalogKind)
	}
	if c.SchemaVersion == 0 {
		return fmt.Errorf("schema_version is required")
	}
	if c.SchemaVersion > SupportedSchemaVersion {
		return fmt.Errorf("unsupported catalog schema_version %d (max supported %d)", c.SchemaVersion, SupportedSchemaVersion)
	}
	levelIDs := map[string]struct{}{}
	lessonIDs := map[string]string{}
	for i, lv := range c.Levels {
		if !idPattern.MatchString(lv.ID) {
			return fmt.Errorf("levels[%d]: invalid id %q", i, lv.ID)
		}
		if _, dup := levelIDs[lv.ID]; dup {
			return fmt.Errorf("duplicate level id %q", lv.ID)
		}
		levelIDs[lv.ID] = struct{}{}
		if lv.Number <= 0 {
			return fmt.Errorf("level %s: number must be >0", lv.ID)
		}
		if strings.TrimSpace(lv.Title) == "" {
			return fmt.Errorf("level %s: title is required", lv.ID)
		}
		if strings.TrimSpace(lv.Badge) == "" {
			return fmt.Errorf("level %s: badge is required", lv.ID)
		}
		for _, ls := range lv.Lessons {
			if !idPattern.MatchString(ls.ID) {
				return fmt.Errorf("level %s: invalid lesson id %q", lv.ID, ls.ID)
			}
			if owner, dup := lessonIDs[ls.ID]; dup {
				return fmt.Errorf("duplicate lesson id %q (levels %s and %s)", ls.ID, owner, lv.ID)
			}
			lessonIDs[ls.ID] = lv.ID
			if strings.TrimSpace(ls.Title) == "" {
				return fmt.Errorf("lesson %s: title is required", ls.ID)
			}
			if ls.EstimatedMinutes < 0 {
				return fmt.Errorf("lesson %s: estimated_minutes must be >=0", ls.ID)
			}
			if err := ls.Blocks.Validate(); err != nil {
				return fmt.Errorf("lesson %s: %w", ls.ID, err)
			}
		}
	}
	return nil
}

func (f LessonFile) Validate() error {
	if f.Kind != LessonKind {
		return fmt.Errorf("kind must be %q", LessonKind)
	}
	if f.SchemaVersion == 0 {
		return fmt.Errorf("schema_version is required")
	}
	if f.SchemaVersion > SupportedSchemaVersion {
		return fmt.Errorf("unsupported lesson schema_version %d (max supported %d)", f.SchemaVersion, SupportedSchemaVersion)
	}
	if !idPattern.MatchString(f.LessonID) {
		return fmt.Errorf("invalid lesson_id %q", f.LessonID)
	}
	return f.Blocks.Validate()
}

func (c *Catalog) reindex() {
	c.order = c.order[:0]
	c.index = map[string]int{}
	for li := range c.Levels {
		lv := &c.Levels[li]
		for si := range lv.Lessons {
			lv.Lessons[si].LevelID = lv.ID
			c.index[lv.Lessons[si].ID] = len(c.order)
			c.order = append(c.order, Ref{LevelID: lv.ID, LessonID: lv.Lessons[si].ID})
		}
	}
}

func (c *Catalog) LevelByID(id string) (Level, bool) {
	for _, lv := range c.Levels {
		if lv.ID == id {
			return lv, true
		}
	}
	return Level{}, false
}

func (c *Catalog) LessonByID(levelID, lessonID string) (Lesson, bool) {
	lv, ok := c.LevelByID(levelID)
	if !ok {
		return Lesson{}, false
	}
	for _, ls := range lv.Lessons {
		if ls.ID == lessonID {
			return ls, true
		}
	}
	return Lesson{}, false
}

// Lesson finds a lesson by its catalog-wide id.
func (c *Catalog) Lesson(lessonID string) (Lesson, bool) {
	pos, ok := c.index[lessonID]
	if !ok {
		return Lesson{}, false
	}
	return c.LessonByID(c.order[pos].LevelID, lessonID)
}

// Adjacent returns the lessons before and after the given one in the
// flattened course order. Either may be nil.
func (c *Catalog) Adjacent(levelID, lessonID string) (prev, next *Ref) {
	pos, ok := c.index[lessonID]
	if !ok || c.order[pos].LevelID != levelID {
		return nil, nil
	}
	if pos > 0 {
		p := c.order[pos-1]
		prev = &p
	}
	if pos+1 < len(c.order) {
		n := c.order[pos+1]
		next = &n
	}
	return prev, next
}

// Order lists every lesson in course order.
func (c *Catalog) Order() []Ref {
	return append([]Ref(nil), c.order...)
}

func (c *Catalog) TotalLessons() int {
	return len(c.order)
}

func (c *Catalog) Contains(lessonID string) bool {
	_, ok := c.index[lessonID]
	return ok
}

func (lv Level) Minutes() int {
	total := 0
	for _, ls := range lv.Lessons {
		total += ls.EstimatedMinutes
	}
	return total
}

func (lv Level) LessonIDs() []string {
	out := make([]string, 0, len(lv.Lessons))
	for _, ls := range lv.Lessons {
		out = append(out, ls.ID)
	}
	return out
}
