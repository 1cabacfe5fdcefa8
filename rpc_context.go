package ceresdb

import (
	"fmt"
	"time"
)

// RpcContext carries the settings of a single call. It is a plain value:
// the With methods return modified copies and nothing is shared between
// calls.
type RpcContext struct {
	// Database overrides the client default database.
	Database string
	// Timeout overrides the RpcConfig default for the call. Zero means
	// unset.
	Timeout time.Duration
}

// NewRpcContext returns an empty context using the client defaults.
func NewRpcContext() RpcContext {
	return RpcContext{}
}

func (c RpcContext) WithDatabase(db string) RpcContext {
	c.Database = db
	return c
}

func (c RpcContext) WithTimeout(d time.Duration) RpcContext {
	c.Timeout = d
	return c
}

// WithTimeoutMillis is WithTimeout in milliseconds.
func (c RpcContext) WithTimeoutMillis(ms uint64) RpcContext {
	return c.WithTimeout(time.Duration(ms) * time.Millisecond)
}

// effectiveTimeout returns the call timeout or fallback when unset.
func (c RpcContext) effectiveTimeout(fallback time.Duration) time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return fallback
}

func (c RpcContext) String() string {
	return fmt.Sprintf("RpcContext{database: %q, timeout: %s}", c.Database, c.Timeout)
}
