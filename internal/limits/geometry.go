package limits

// Surface geometry. A zero or negative size from a client means "use the
// default"; anything above the maximum is clamped.
const (
	DefaultCols = 80
	DefaultRows = 24
	MaxCols     = 500
	MaxRows     = 200
)

// Normalize substitutes the defaults for unset dimensions.
func Normalize(cols, rows int) (int, int) {
	if cols <= 0 {
		cols = DefaultCols
	}
	if rows <= 0 {
		rows = DefaultRows
	}
	return cols, rows
}

// Clamp normalizes cols and rows and caps them at MaxCols by MaxRows.
func Clamp(cols, rows int) (int, int) {
	cols, rows = Normalize(cols, rows)
	return min(cols, MaxCols), min(rows, MaxRows)
}
