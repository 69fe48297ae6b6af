package ui

const (
	minCols  = 60
	minRows  = 18
	wideCols = 110
)

func DetermineLayoutMode(cols, rows int) LayoutMode {
	if cols < minCols || rows < minRows {
		return LayoutTooSmall
	}
	if cols >= wideCols {
		return LayoutWide
	}
	return LayoutMedium
}

// contentWidth is the wrap width for lesson sections inside the main panel.
func contentWidth(mode LayoutMode, cols int) int {
	w := cols - 4
	if mode == LayoutWide {
		w -= sidebarWidth
	}
	return min(max(24, w), 96)
}

const sidebarWidth = 32
