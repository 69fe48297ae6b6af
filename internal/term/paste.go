package term

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

const (
	bracketedPasteOn  = "\x1b[200~"
	bracketedPasteOff = "\x1b[201~"
)

// Paste inserts pasted content. Every completed line is returned for the
// caller to submit in order; the trailing partial line stays in the editor.
func (l *Line) Paste(content string) []string {
	content = strings.ReplaceAll(content, bracketedPasteOn, "")
	content = strings.ReplaceAll(content, bracketedPasteOff, "")
	content = ansi.Strip(content)
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	if content == "" {
		return nil
	}
	parts := strings.Split(content, "\n")
	var done []string
	for i, part := range parts {
		l.Insert(part)
		if i < len(parts)-1 {
			done = append(done, l.Submit())
		}
	}
	return done
}
