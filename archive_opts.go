package capdec

import "log/slog"

// DecodeOption configures archive decoding.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	index     *Index
	force     bool
	logger    *slog.Logger
	forceOpts []ForceOption
}

func newDecodeConfig(opts []DecodeOption) decodeConfig {
	cfg := decodeConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// DecodeWithIndex resolves identifiers against the given candidate index.
// Without an index every identifier is a decimal placeholder (or a forced
// name when forcing is enabled).
func DecodeWithIndex(ix *Index) DecodeOption {
	return func(c *decodeConfig) {
		c.index = ix
	}
}

// DecodeWithForcing enables synthesizing checksum-preserving identifiers
// for entries the index cannot resolve, so the decompiled text recompiles
// to a byte-identical archive.
func DecodeWithForcing(enabled bool) DecodeOption {
	return func(c *decodeConfig) {
		c.force = enabled
	}
}

// DecodeWithForceWorkers sets the worker count for forcing searches.
// See ForceWithWorkers.
func DecodeWithForceWorkers(n int) DecodeOption {
	return func(c *decodeConfig) {
		c.forceOpts = append(c.forceOpts, ForceWithWorkers(n))
	}
}

// DecodeWithLogger sets the logger for decode warnings and progress.
// Defaults to slog.Default().
func DecodeWithLogger(logger *slog.Logger) DecodeOption {
	return func(c *decodeConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}
