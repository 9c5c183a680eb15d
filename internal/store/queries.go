package store

import (
	"database/sql"
	"time"

	"github.com/hpungsan/msgkeep/internal/errors"
	"github.com/hpungsan/msgkeep/internal/message"
)

// Upsert writes or replaces the entry for (repository, branch).
// Last write wins; content is never merged. SavedAt is stamped here
// and written back to rec.
func Upsert(db *sql.DB, rec *message.Record) error {
	now := time.Now().Unix()

	query := `
		INSERT INTO messages (repository, branch, hook, content, saved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(repository, branch) DO UPDATE SET
			hook = excluded.hook,
			content = excluded.content,
			saved_at = excluded.saved_at
	`

	_, err := db.Exec(query, rec.Repository, rec.Branch, rec.Hook, rec.Content, now)
	if err != nil {
		return errors.NewStoreUnavailable(err)
	}

	rec.SavedAt = now
	return nil
}

// Lookup retrieves the entry for (repository, branch).
// A missing key is not an error; ok reports presence.
func Lookup(db *sql.DB, repository, branch string) (*message.Record, bool, error) {
	query := `
		SELECT repository, branch, hook, content, saved_at
		FROM messages
		WHERE repository = ? AND branch = ?
	`

	var rec message.Record
	err := db.QueryRow(query, repository, branch).Scan(
		&rec.Repository, &rec.Branch, &rec.Hook, &rec.Content, &rec.SavedAt,
	)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.NewStoreUnavailable(err)
	}

	return &rec, true, nil
}

// Delete removes the entry for (repository, branch).
// Deleting an absent key is a no-op, not an error.
func Delete(db *sql.DB, repository, branch string) error {
	_, err := db.Exec("DELETE FROM messages WHERE repository = ? AND branch = ?", repository, branch)
	if err != nil {
		return errors.NewStoreUnavailable(err)
	}
	return nil
}

// List returns all preserved messages, newest first.
func List(db *sql.DB) ([]message.Record, error) {
	query := `
		SELECT repository, branch, hook, content, saved_at
		FROM messages
		ORDER BY saved_at DESC, repository, branch
	`
	return listQuery(db, query)
}

// ListByRepository returns the preserved messages for one repository,
// newest first.
func ListByRepository(db *sql.DB, repository string) ([]message.Record, error) {
	query := `
		SELECT repository, branch, hook, content, saved_at
		FROM messages
		WHERE repository = ?
		ORDER BY saved_at DESC, branch
	`
	return listQuery(db, query, repository)
}

// Purge deletes every entry and reports how many were removed.
func Purge(db *sql.DB) (int, error) {
	result, err := db.Exec("DELETE FROM messages")
	if err != nil {
		return 0, errors.NewStoreUnavailable(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewStoreUnavailable(err)
	}

	return int(n), nil
}

// listQuery runs a SELECT over the messages table and scans all rows.
func listQuery(db *sql.DB, query string, args ...any) ([]message.Record, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, errors.NewStoreUnavailable(err)
	}
	defer rows.Close()

	var records []message.Record
	for rows.Next() {
		var rec message.Record
		if err := rows.Scan(&rec.Repository, &rec.Branch, &rec.Hook, &rec.Content, &rec.SavedAt); err != nil {
			return nil, errors.NewStoreUnavailable(err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreUnavailable(err)
	}

	return records, nil
}
