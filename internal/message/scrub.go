package message

import "strings"

// Marker bodies appended to the active comment character. The scissors
// line is what git emits for commit --verbose with commit.cleanup=scissors;
// the diff header appears when the verbose diff is commented out instead.
const (
	scissorsBody = " ------------------------ >8 ------------------------"
	diffBody     = " diff --git "
)

// Scrub extracts the user's typed message from raw commit-message-file
// content. The text is cut at the scissors line or at a commented diff
// header, whichever comes first; remaining comment lines are dropped;
// trailing newlines are trimmed. Interior blank lines are kept, since
// blank is not comment.
func Scrub(raw, commentChar string) string {
	if commentChar == "" {
		commentChar = "#"
	}
	scissors := commentChar + scissorsBody
	diffStart := commentChar + diffBody

	lines := strings.Split(raw, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == scissors || strings.HasPrefix(line, diffStart) {
			break
		}
		if strings.HasPrefix(line, commentChar) {
			continue
		}
		kept = append(kept, line)
	}

	return strings.TrimRight(strings.Join(kept, "\n"), "\n")
}
