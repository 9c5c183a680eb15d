package msgkeep

import "go.uber.org/zap"

type options struct {
	workDir     string
	cacheDir    string
	commentChar string
	resolver    Resolver
	logger      *zap.Logger
}

// Option configures New.
type Option func(*options)

// WithWorkDir sets the repository directory identity is derived from
// and configuration is searched under. Default is the process working
// directory.
func WithWorkDir(dir string) Option {
	return func(o *options) {
		o.workDir = dir
	}
}

// WithCacheDir overrides the directory holding the message database and
// diagnostic log. Default is the platform user cache directory. Tests
// point this at t.TempDir().
func WithCacheDir(dir string) Option {
	return func(o *options) {
		o.cacheDir = dir
	}
}

// WithCommentChar overrides the comment character used for scrubbing
// and restore markers, taking precedence over configuration files and
// git's core.commentChar.
func WithCommentChar(c string) Option {
	return func(o *options) {
		o.commentChar = c
	}
}

// WithResolver sets a custom identity resolver.
// This is primarily used for testing to avoid spawning git.
func WithResolver(r Resolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// WithLogger sets a custom diagnostic logger instead of the file logger
// under the cache directory.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
