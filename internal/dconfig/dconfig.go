// Package dconfig holds the handle-level option structs shared by
// binout, d3plot, and keyfile (spec.md expansion §4.1c).
package dconfig

import "log/slog"

// Options tunes a binout/d3plot handle's behavior.
type Options struct {
	Logger                      *slog.Logger
	ThreadSafe                  bool // reserved for a future single-threaded fast path
	MaxFileDescriptorsPerFamily int  // not read by any handle; the multifile slot vector always grows as needed
	Cache                       bool // not read by any handle; multifile always memoizes decompressed .xz members
	IndexDir                    string
}

// Option mutates an Options value.
type Option func(*Options)

func Defaults() Options {
	return Options{ThreadSafe: true, Cache: true}
}

func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }
func WithThreadSafety(on bool) Option  { return func(o *Options) { o.ThreadSafe = on } }
func WithCache(on bool) Option         { return func(o *Options) { o.Cache = on } }
func WithIndex(dir string) Option      { return func(o *Options) { o.IndexDir = dir } }

func Apply(opts ...Option) Options {
	o := Defaults()
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// ParseConfig controls key-file include resolution (spec.md §4.6).
type ParseConfig struct {
	ParseIncludes          bool
	IgnoreNotFoundIncludes bool
	ExtraIncludePaths      []string
}

func DefaultParseConfig() ParseConfig {
	return ParseConfig{ParseIncludes: true}
}
