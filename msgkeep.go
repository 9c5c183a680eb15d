// Package msgkeep preserves commit messages rejected by
// commit-message-validating hooks so they can be restored into the
// editor on the next commit attempt for the same repository and branch.
//
// Hook authors wrap their validation in Keeper.Preserve during the
// commit-msg stage and call Keeper.Restore during prepare-commit-msg.
// Preservation is best-effort by contract: identity or store problems
// are logged to a diagnostic file and degrade to "no preservation",
// never to a failed commit.
package msgkeep

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/msgkeep/internal/config"
	keeperrors "github.com/hpungsan/msgkeep/internal/errors"
	"github.com/hpungsan/msgkeep/internal/gitid"
	"github.com/hpungsan/msgkeep/internal/logging"
	"github.com/hpungsan/msgkeep/internal/message"
	"github.com/hpungsan/msgkeep/internal/store"
)

// Identity keys preserved messages: the canonical repository path plus
// the branch that was checked out.
type Identity struct {
	Repository string
	Branch     string
}

// Resolver derives the identity for the working repository.
type Resolver interface {
	Resolve() (Identity, error)
}

// Saved is one preserved message as reported by List.
type Saved struct {
	Repository string    `json:"repository"`
	Branch     string    `json:"branch"`
	Hook       string    `json:"hook,omitempty"`
	Content    string    `json:"content"`
	SavedAt    time.Time `json:"saved_at"`
}

// Keeper carries the resolved configuration for one hook invocation.
// The message store itself is opened and closed per operation, never
// held across the process lifetime, so concurrent hook processes
// observe a consistent view.
type Keeper struct {
	cacheDir    string
	commentChar string
	disabled    bool
	resolver    Resolver
	logger      *zap.Logger
}

// New builds a Keeper from configuration files and options. It never
// fails: when the environment is too broken to preserve anything (no
// cache directory, unreadable config) the Keeper disables itself and
// records why in the diagnostic log, because a hook helper must not
// break the commit pipeline it serves.
func New(opts ...Option) *Keeper {
	o := &options{workDir: "."}
	for _, opt := range opts {
		opt(o)
	}

	globalDir := ""
	if confDir, err := os.UserConfigDir(); err == nil {
		globalDir = filepath.Join(confDir, "msgkeep")
	}
	cfg, cfgErr := config.Load(globalDir, o.workDir)
	if cfgErr != nil {
		cfg = config.DefaultConfig()
	}

	cacheDir := o.cacheDir
	if cacheDir == "" {
		cacheDir = cfg.CacheDir
	}
	if cacheDir == "" {
		if userCache, err := os.UserCacheDir(); err == nil {
			cacheDir = filepath.Join(userCache, "msgkeep")
		}
	}

	k := &Keeper{
		cacheDir: cacheDir,
		disabled: cfg.Disabled,
		logger:   zap.NewNop(),
	}

	if o.logger != nil {
		k.logger = o.logger
	} else if cacheDir != "" {
		if logger, err := logging.NewFileLogger(cacheDir, cfg.LogLevel); err == nil {
			k.logger = logger
		}
	}

	if cfgErr != nil {
		k.logger.Warn("failed to load config, using defaults", zap.Error(cfgErr))
	}
	if cacheDir == "" {
		k.disabled = true
		k.logger.Warn("no cache directory available, preservation disabled")
	}

	var detectCommentChar func() string
	k.resolver = o.resolver
	if k.resolver == nil {
		gr := gitid.NewResolver(gitid.WithWorkDir(o.workDir))
		k.resolver = gitResolver{gr}
		detectCommentChar = gr.CommentChar
	}

	k.commentChar = o.commentChar
	if k.commentChar == "" {
		k.commentChar = cfg.CommentChar
	}
	if k.commentChar == "" && detectCommentChar != nil {
		k.commentChar = detectCommentChar()
	}
	if k.commentChar == "" {
		k.commentChar = "#"
	}

	return k
}

// Preserve reads the commit message file, scrubs comments and any diff
// trailer out of it, and brackets validate with the save/delete
// protocol: the scrubbed message is saved under the current identity
// BEFORE validate runs and discarded only after validate returns nil.
// A non-nil return, or a panic, leaves the entry in place for the next
// attempt. Identity and store failures are logged and skipped; validate
// still runs. The returned error is validate's own, or the message
// file read failure.
func (k *Keeper) Preserve(messageFile, hook string, validate func(message string) error) error {
	if messageFile == "" {
		return keeperrors.NewInvalidInput("message file path is required")
	}
	if validate == nil {
		return keeperrors.NewInvalidInput("validate function is required")
	}

	raw, err := os.ReadFile(messageFile)
	if err != nil {
		return fmt.Errorf("failed to read commit message file: %w", err)
	}
	cleaned := message.Scrub(string(raw), k.commentChar)

	if k.disabled {
		return validate(cleaned)
	}

	id, err := k.resolver.Resolve()
	if err != nil {
		k.logger.Warn("skipping preservation", zap.Error(err))
		return validate(cleaned)
	}

	k.save(id, hook, cleaned)

	if err := validate(cleaned); err != nil {
		k.logger.Info("validation failed, message kept",
			zap.String("repository", id.Repository),
			zap.String("branch", id.Branch),
			zap.String("hook", hook))
		return err
	}

	k.discard(id)
	return nil
}

// Restore injects a previously preserved message for the current
// identity into messageFile ahead of whatever the framework already put
// there, then consumes the entry. The entry is deleted only after the
// write lands, so a transient I/O failure keeps the message for a later
// attempt. Missing entries and preservation failures leave the file
// untouched and return nil; only commit-message-file I/O problems
// produce an error.
func (k *Keeper) Restore(messageFile string) error {
	if messageFile == "" {
		return keeperrors.NewInvalidInput("message file path is required")
	}
	if k.disabled {
		return nil
	}

	id, err := k.resolver.Resolve()
	if err != nil {
		k.logger.Warn("skipping restore", zap.Error(err))
		return nil
	}

	db, err := store.Open(k.cacheDir)
	if err != nil {
		k.logger.Error("message store unavailable", zap.Error(err))
		return nil
	}
	defer db.Close()

	rec, ok, err := store.Lookup(db, id.Repository, id.Branch)
	if err != nil {
		k.logger.Error("failed to look up message", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	if strings.TrimSpace(rec.Content) == "" {
		// Nothing worth restoring; consume the entry anyway
		if err := store.Delete(db, id.Repository, id.Branch); err != nil {
			k.logger.Error("failed to discard blank message", zap.Error(err))
		}
		return nil
	}

	existing, err := os.ReadFile(messageFile)
	if err != nil {
		rerr := keeperrors.NewRestoreIO(messageFile, err)
		k.logger.Error("restore failed", zap.Error(rerr))
		return rerr
	}

	merged := message.Compose(rec, string(existing), k.commentChar)
	if err := os.WriteFile(messageFile, []byte(merged), 0o600); err != nil {
		rerr := keeperrors.NewRestoreIO(messageFile, err)
		k.logger.Error("restore failed", zap.Error(rerr))
		return rerr
	}

	if err := store.Delete(db, id.Repository, id.Branch); err != nil {
		k.logger.Error("failed to consume restored message", zap.Error(err))
	}

	k.logger.Info("message restored",
		zap.String("repository", id.Repository),
		zap.String("branch", id.Branch))
	return nil
}

// List reports preserved messages for the current repository, newest
// first, or for all repositories when all is true.
func (k *Keeper) List(all bool) ([]Saved, error) {
	db, err := store.Open(k.cacheDir)
	if err != nil {
		return nil, keeperrors.NewStoreUnavailable(err)
	}
	defer db.Close()

	var records []message.Record
	if all {
		records, err = store.List(db)
	} else {
		id, rerr := k.resolver.Resolve()
		if rerr != nil {
			return nil, rerr
		}
		records, err = store.ListByRepository(db, id.Repository)
	}
	if err != nil {
		return nil, err
	}

	saved := make([]Saved, 0, len(records))
	for _, rec := range records {
		saved = append(saved, Saved{
			Repository: rec.Repository,
			Branch:     rec.Branch,
			Hook:       rec.Hook,
			Content:    rec.Content,
			SavedAt:    time.Unix(rec.SavedAt, 0),
		})
	}
	return saved, nil
}

// Clear deletes the preserved message for the current identity, or
// every entry when all is true. It reports how many were removed.
func (k *Keeper) Clear(all bool) (int, error) {
	db, err := store.Open(k.cacheDir)
	if err != nil {
		return 0, keeperrors.NewStoreUnavailable(err)
	}
	defer db.Close()

	if all {
		return store.Purge(db)
	}

	id, err := k.resolver.Resolve()
	if err != nil {
		return 0, err
	}

	_, ok, err := store.Lookup(db, id.Repository, id.Branch)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	if err := store.Delete(db, id.Repository, id.Branch); err != nil {
		return 0, err
	}
	return 1, nil
}

// save upserts the scrubbed message. Failures are logged and swallowed:
// losing the preservation convenience is acceptable, blocking the
// commit is not.
func (k *Keeper) save(id Identity, hook, content string) {
	db, err := store.Open(k.cacheDir)
	if err != nil {
		k.logger.Error("message store unavailable", zap.Error(err))
		return
	}
	defer db.Close()

	rec := &message.Record{
		Repository: id.Repository,
		Branch:     id.Branch,
		Hook:       hook,
		Content:    content,
	}
	if err := store.Upsert(db, rec); err != nil {
		k.logger.Error("failed to save message", zap.Error(err))
		return
	}

	k.logger.Debug("message saved",
		zap.String("repository", id.Repository),
		zap.String("branch", id.Branch),
		zap.String("hook", hook))
}

// discard removes the entry after successful validation. Failures are
// logged and swallowed like save's.
func (k *Keeper) discard(id Identity) {
	db, err := store.Open(k.cacheDir)
	if err != nil {
		k.logger.Error("message store unavailable", zap.Error(err))
		return
	}
	defer db.Close()

	if err := store.Delete(db, id.Repository, id.Branch); err != nil {
		k.logger.Error("failed to discard message", zap.Error(err))
	}
}

// Sync flushes the diagnostic log. CLI entry points call it on exit.
func (k *Keeper) Sync() {
	_ = k.logger.Sync()
}

// gitResolver adapts the internal git resolver to the public interface.
type gitResolver struct {
	inner *gitid.Resolver
}

func (g gitResolver) Resolve() (Identity, error) {
	id, err := g.inner.Resolve()
	if err != nil {
		return Identity{}, err
	}
	return Identity{Repository: id.Repository, Branch: id.Branch}, nil
}
