package state

// chromeLines is the number of rows used by the header, status and help lines.
const chromeLines = 3

func ClampCursor(cursor, size int) int {
	if size <= 0 {
		return 0
	}
	if cursor >= size {
		return size - 1
	}
	if cursor < 0 {
		return 0
	}
	return cursor
}

// BodyHeight returns how many page lines fit in a window of the given height.
func BodyHeight(windowHeight int) int {
	if windowHeight <= chromeLines {
		return 0
	}
	return windowHeight - chromeLines
}

// VisibleRange returns the [start, end) slice of page lines shown from top.
func VisibleRange(totalRows, top, height int) (int, int) {
	if totalRows <= 0 || height <= 0 {
		return 0, 0
	}
	start := ClampCursor(top, totalRows)
	end := start + height
	if end > totalRows {
		end = totalRows
	}
	return start, end
}
