// Package repository defines the game store interface and errors.
package repository

// Option applies a configuration option to the SQLiteStore.
type Option func(*options)

type options struct {
	maxOpenConns int
}

func newOptions(opts ...Option) options {
	o := options{maxOpenConns: 1}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithMaxOpenConns sets the connection pool limit. The default of one
// serializes writers, which is what SQLite wants.
func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxOpenConns = n
		}
	}
}
