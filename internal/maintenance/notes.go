package maintenance

import "strings"

// CancelMarker prefixes notes recorded when a task is cancelled.
const CancelMarker = "CANCELLED"

// AppendNote returns existing with text appended on a new line. The log is
// append-only: prior content is never trimmed or replaced, and repeated text
// produces repeated lines.
func AppendNote(existing, text string) string {
	if existing == "" {
		return text
	}
	return existing + "\n" + text
}

// CancelNote formats the note line recorded for a cancellation.
func CancelNote(note string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return CancelMarker
	}
	return CancelMarker + ": " + note
}

// NoteLines splits a notes log into its individual entries.
func NoteLines(notes string) []string {
	if notes == "" {
		return nil
	}
	return strings.Split(notes, "\n")
}
