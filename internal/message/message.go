package message

// Record represents one preserved commit message.
type Record struct {
	// Repository is the canonical absolute path of the repository worktree
	Repository string

	// Branch is the branch name that was checked out at capture time
	Branch string

	// Hook is the label of the hook whose validation failure triggered the capture
	Hook string

	// Content is the scrubbed message text (comments and diff trailer removed)
	Content string

	// SavedAt is the Unix timestamp of the last capture for this key
	SavedAt int64
}
