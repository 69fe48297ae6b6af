package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	catalogFile    = "catalog.yaml"
	cheatSheetFile = "cheatsheet.yaml"
	lessonsDir     = "lessons"
)

type FSLoader struct{}

func NewLoader() *FSLoader { return &FSLoader{} }

// Load reads catalog.yaml, every lessons/<id>.yaml and the optional cheat
// sheet from fsys. A lesson without a file has no blocks; a file without a
// catalog entry is an error.
func (l *FSLoader) Load(ctx context.Context, fsys fs.FS) (*Catalog, error) {
	c, err := readCatalog(fsys)
	if err != nil {
		return nil, err
	}
	c.reindex()

	files, err := l.readLessons(ctx, fsys)
	if err != nil {
		return nil, err
	}
	for id := range files {
		if !c.Contains(id) {
			return nil, fmt.Errorf("lesson file %s.yaml has no catalog entry", id)
		}
	}
	for li := range c.Levels {
		for si := range c.Levels[li].Lessons {
			ls := &c.Levels[li].Lessons[si]
			if f, ok := files[ls.ID]; ok {
				ls.Blocks = f.Blocks
			}
		}
	}

	sheet, err := readLessonFile(fsys, cheatSheetFile)
	switch {
	case err == nil:
		c.CheatSheet = sheet.Blocks
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}
	return c, nil
}

func readCatalog(fsys fs.FS) (*Catalog, error) {
	b, err := fs.ReadFile(fsys, catalogFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", catalogFile, err)
	}
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", catalogFile, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", catalogFile, err)
	}
	return &c, nil
}

func (l *FSLoader) readLessons(ctx context.Context, fsys fs.FS) (map[string]LessonFile, error) {
	entries, err := fs.ReadDir(fsys, lessonsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]LessonFile{}, nil
		}
		return nil, err
	}
	out := make(map[string]LessonFile, len(entries))
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := readLessonFile(fsys, path.Join(lessonsDir, e.Name()))
		if err != nil {
			return nil, err
		}
		if want := strings.TrimSuffix(e.Name(), ".yaml"); f.LessonID != want {
			return nil, fmt.Errorf("lesson id mismatch for %s: file=%s", e.Name(), f.LessonID)
		}
		out[f.LessonID] = f
	}
	return out, nil
}

func readLessonFile(fsys fs.FS, name string) (LessonFile, error) {
	var f LessonFile
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return f, err
	}
	if err := yaml.Unmarshal(b, &f); err != nil {
		return f, fmt.Errorf("parse %s: %w", name, err)
	}
	if err := f.Validate(); err != nil {
		return f, fmt.Errorf("validate %s: %w", name, err)
	}
	return f, nil
}
