package ceresdb

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/ceresdb/ceresdb-client-go/internal/wire"
	"gopkg.in/yaml.v3"
)

// Unlimited disables a message size limit.
const Unlimited = -1

// RpcConfig defines the connection-wide settings of a Client. It is fixed
// when the Client is built.
//
// Zero fields take the value of DefaultRpcConfig.
type RpcConfig struct {
	// ThreadNum bounds the number of calls in flight at once. Not positive
	// means the number of CPUs.
	ThreadNum int `json:"thread_num" yaml:"thread_num"`
	// MaxSendMsgLen is the largest request in bytes, Unlimited for none.
	MaxSendMsgLen int `json:"max_send_msg_len" yaml:"max_send_msg_len"`
	// MaxRecvMsgLen is the largest response in bytes, Unlimited for none.
	MaxRecvMsgLen int `json:"max_recv_msg_len" yaml:"max_recv_msg_len"`
	// KeepAliveInterval is the idle time after which the channel is pinged.
	KeepAliveInterval time.Duration `json:"keepalive_time" yaml:"-"`
	// KeepAliveTimeout is how long to wait for a ping ack before the
	// channel is considered broken.
	KeepAliveTimeout time.Duration `json:"keepalive_timeout" yaml:"-"`
	// KeepAliveWhileIdle pings even when no call is in flight. Nil means
	// true.
	KeepAliveWhileIdle *bool `json:"keepalive_while_idle" yaml:"keepalive_while_idle"`
	// DefaultWriteTimeout applies to Write calls whose RpcContext sets none.
	DefaultWriteTimeout time.Duration `json:"default_write_timeout" yaml:"-"`
	// DefaultSqlQueryTimeout applies to Query calls whose RpcContext sets none.
	DefaultSqlQueryTimeout time.Duration `json:"default_sql_query_timeout" yaml:"-"`
	// ConnectTimeout bounds establishing the channel.
	ConnectTimeout time.Duration `json:"connect_timeout" yaml:"-"`
	// Compression names the request compressor: "", "gzip", "zstd" or
	// "snappy".
	Compression string `json:"compression" yaml:"compression"`
}

// Defaults used for unset RpcConfig fields.
const (
	DefaultMaxSendMsgLen     = 20 * 1024 * 1024
	DefaultMaxRecvMsgLen     = 1024 * 1024 * 1024
	DefaultKeepAliveInterval = 60 * time.Second
	DefaultKeepAliveTimeout  = 3 * time.Second
	DefaultWriteTimeout      = 5 * time.Second
	DefaultSqlQueryTimeout   = 60 * time.Second
	DefaultConnectTimeout    = 3 * time.Second
)

// DefaultRpcConfig returns the configuration used when none is given.
func DefaultRpcConfig() RpcConfig {
	return RpcConfig{
		ThreadNum:              runtime.NumCPU(),
		MaxSendMsgLen:          DefaultMaxSendMsgLen,
		MaxRecvMsgLen:          DefaultMaxRecvMsgLen,
		KeepAliveInterval:      DefaultKeepAliveInterval,
		KeepAliveTimeout:       DefaultKeepAliveTimeout,
		KeepAliveWhileIdle:     Bool(true),
		DefaultWriteTimeout:    DefaultWriteTimeout,
		DefaultSqlQueryTimeout: DefaultSqlQueryTimeout,
		ConnectTimeout:         DefaultConnectTimeout,
	}
}

// Bool returns a pointer to v, for optional RpcConfig switches.
func Bool(v bool) *bool {
	return &v
}

// withDefaults fills zero fields from DefaultRpcConfig.
func (c RpcConfig) withDefaults() RpcConfig {
	d := DefaultRpcConfig()
	if c.ThreadNum <= 0 {
		c.ThreadNum = d.ThreadNum
	}
	if c.MaxSendMsgLen == 0 {
		c.MaxSendMsgLen = d.MaxSendMsgLen
	}
	if c.MaxRecvMsgLen == 0 {
		c.MaxRecvMsgLen = d.MaxRecvMsgLen
	}
	if c.KeepAliveInterval == 0 {
		c.KeepAliveInterval = d.KeepAliveInterval
	}
	if c.KeepAliveTimeout == 0 {
		c.KeepAliveTimeout = d.KeepAliveTimeout
	}
	if c.KeepAliveWhileIdle == nil {
		c.KeepAliveWhileIdle = d.KeepAliveWhileIdle
	}
	if c.DefaultWriteTimeout == 0 {
		c.DefaultWriteTimeout = d.DefaultWriteTimeout
	}
	if c.DefaultSqlQueryTimeout == 0 {
		c.DefaultSqlQueryTimeout = d.DefaultSqlQueryTimeout
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	return c
}

// Validate reports the first invalid setting.
func (c RpcConfig) Validate() error {
	const op = "rpc_config"
	if c.MaxSendMsgLen < Unlimited {
		return validationError(op, "max_send_msg_len must be positive or %d, got %d", Unlimited, c.MaxSendMsgLen)
	}
	if c.MaxRecvMsgLen < Unlimited {
		return validationError(op, "max_recv_msg_len must be positive or %d, got %d", Unlimited, c.MaxRecvMsgLen)
	}
	for name, d := range map[string]time.Duration{
		"keepalive_time":            c.KeepAliveInterval,
		"keepalive_timeout":         c.KeepAliveTimeout,
		"default_write_timeout":     c.DefaultWriteTimeout,
		"default_sql_query_timeout": c.DefaultSqlQueryTimeout,
		"connect_timeout":           c.ConnectTimeout,
	} {
		if d < 0 {
			return validationError(op, "%s must not be negative, got %s", name, d)
		}
	}
	if !wire.ValidCompression(c.Compression) {
		return validationError(op, "unknown compression %q", c.Compression)
	}
	return nil
}

// rpcConfigFile is the on-disk form of RpcConfig; durations are integer
// milliseconds.
type rpcConfigFile struct {
	RpcConfig `yaml:",inline"`

	KeepAliveTimeMs          int64 `yaml:"keepalive_time_ms"`
	KeepAliveTimeoutMs       int64 `yaml:"keepalive_timeout_ms"`
	DefaultWriteTimeoutMs    int64 `yaml:"default_write_timeout_ms"`
	DefaultSqlQueryTimeoutMs int64 `yaml:"default_sql_query_timeout_ms"`
	ConnectTimeoutMs         int64 `yaml:"connect_timeout_ms"`
}

// ParseRpcConfig parses a YAML document such as:
//
//	thread_num: 8
//	max_send_msg_len: 4194304
//	max_recv_msg_len: -1
//	keepalive_time_ms: 30000
//	keepalive_timeout_ms: 5000
//	default_write_timeout_ms: 2000
//	default_sql_query_timeout_ms: 30000
//	connect_timeout_ms: 1000
//	compression: zstd
//
// Omitted options keep their zero value and fall back to the defaults when
// the Client is built.
func ParseRpcConfig(data []byte) (RpcConfig, error) {
	var f rpcConfigFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return RpcConfig{}, &Error{Kind: KindValidation, Op: "rpc_config", Message: "malformed config", Cause: err}
	}
	c := f.RpcConfig
	c.KeepAliveInterval = time.Duration(f.KeepAliveTimeMs) * time.Millisecond
	c.KeepAliveTimeout = time.Duration(f.KeepAliveTimeoutMs) * time.Millisecond
	c.DefaultWriteTimeout = time.Duration(f.DefaultWriteTimeoutMs) * time.Millisecond
	c.DefaultSqlQueryTimeout = time.Duration(f.DefaultSqlQueryTimeoutMs) * time.Millisecond
	c.ConnectTimeout = time.Duration(f.ConnectTimeoutMs) * time.Millisecond
	return c, c.Validate()
}

// LoadRpcConfig reads a YAML file, see ParseRpcConfig.
func LoadRpcConfig(path string) (RpcConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RpcConfig{}, fmt.Errorf("read rpc config: %w", err)
	}
	return ParseRpcConfig(data)
}
