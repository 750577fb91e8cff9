// SPDX-License-Identifier: MPL-2.0

package cueutil

// DefaultMaxFileSize caps command and config files at 5 MiB.
const DefaultMaxFileSize int64 = 5 << 20

type (
	// decodeOptions are the knobs of ParseAndDecode.
	decodeOptions struct {
		maxFileSize int64
		concrete    bool
		filename    string
	}

	// Option adjusts ParseAndDecode.
	Option func(*decodeOptions)
)

func newDecodeOptions(opts []Option) decodeOptions {
	o := decodeOptions{maxFileSize: DefaultMaxFileSize, concrete: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithMaxFileSize overrides DefaultMaxFileSize.
func WithMaxFileSize(size int64) Option {
	return func(o *decodeOptions) { o.maxFileSize = size }
}

// WithConcrete(false) accepts values left incomplete after unification.
func WithConcrete(concrete bool) Option {
	return func(o *decodeOptions) { o.concrete = concrete }
}

// WithFilename names the data in positions and error messages.
func WithFilename(name string) Option {
	return func(o *decodeOptions) { o.filename = name }
}
