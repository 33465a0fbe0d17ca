package limits

const (
	// PayloadInspectLimit bounds how much of a terminal input payload is hashed
	// for redacted logging.
	PayloadInspectLimit = 4096

	// ScrollbackLinesDefault is the per-surface line history kept by the
	// in-memory engine and the PTY capture buffer.
	ScrollbackLinesDefault = 10000
	ScrollbackLinesMax     = 200000

	// BufferMaxBytes caps a single named buffer.
	BufferMaxBytes = 16 * 1024 * 1024

	TitleMaxRunes = 256
	// NameMaxRunes caps buffer and wait channel names.
	NameMaxRunes = 128
)

// ScrollbackLines clamps a configured scrollback size.
func ScrollbackLines(configured int) int {
	if configured <= 0 {
		return ScrollbackLinesDefault
	}
	if configured > ScrollbackLinesMax {
		return ScrollbackLinesMax
	}
	return configured
}
