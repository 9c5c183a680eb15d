package message

import (
	"fmt"
	"strings"
	"time"
)

// Compose renders the restore payload for a commit-message file: a
// comment header recording when and by which hook the message was
// saved, the saved message itself, and then the framework-provided
// content behind a separator comment when any exists. Both marker lines
// start with the comment character so git strips them before the commit
// is recorded. The result ends with exactly one newline.
func Compose(rec *Record, existing, commentChar string) string {
	if commentChar == "" {
		commentChar = "#"
	}

	savedAt := time.Unix(rec.SavedAt, 0).UTC().Format(time.RFC3339)

	var b strings.Builder
	if rec.Hook != "" {
		fmt.Fprintf(&b, "%s Saved %s by %s hook\n", commentChar, savedAt, rec.Hook)
	} else {
		fmt.Fprintf(&b, "%s Saved %s\n", commentChar, savedAt)
	}
	b.WriteString(strings.TrimRight(rec.Content, "\n"))
	b.WriteString("\n")

	if strings.TrimSpace(existing) != "" {
		fmt.Fprintf(&b, "%s Existing commit message content\n", commentChar)
		b.WriteString(strings.TrimRight(existing, "\n"))
		b.WriteString("\n")
	}

	return b.String()
}
