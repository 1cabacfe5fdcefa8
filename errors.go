/*
 * Copyright 2024 CeresDB Project Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package ceresdb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorKind classifies an Error.
type ErrorKind int

const (
	// KindValidation is a malformed value, point or request caught before
	// any network activity.
	KindValidation ErrorKind = iota + 1
	// KindInvalidState is a builder or request used after it was finalized.
	KindInvalidState
	// KindConnection is an unreachable or malformed endpoint.
	KindConnection
	// KindTimeout is a call that exceeded its effective timeout.
	KindTimeout
	// KindTransport is a channel-level failure, e.g. a message too large.
	KindTransport
	// KindServer is a rejection by the remote side.
	KindServer
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindInvalidState:
		return "invalid state"
	case KindConnection:
		return "connection"
	case KindTimeout:
		return "timeout"
	case KindTransport:
		return "transport"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. Every *Error matches the sentinel of its Kind.
var (
	ErrValidation   = errors.New("validation error")
	ErrInvalidState = errors.New("invalid state")
	ErrConnection   = errors.New("connection error")
	ErrTimeout      = errors.New("timeout")
	ErrTransport    = errors.New("transport error")
	ErrServer       = errors.New("server error")

	// ErrOutOfRange is wrapped by validation errors of the numeric
	// ValueBuilder factories.
	ErrOutOfRange = errors.New("value out of range")
)

// Error is returned by every fallible operation of this package.
type Error struct {
	Kind ErrorKind
	// Op is the operation that failed, e.g. "write" or "point.build".
	Op string
	// Code is the server response code, or the gRPC status code for
	// transport-level failures. Zero when not applicable.
	Code    uint32
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Code != 0 {
		msg = fmt.Sprintf("%d: %s", e.Code, msg)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements error matching by kind.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindValidation:
		return target == ErrValidation
	case KindInvalidState:
		return target == ErrInvalidState
	case KindConnection:
		return target == ErrConnection
	case KindTimeout:
		return target == ErrTimeout
	case KindTransport:
		return target == ErrTransport
	case KindServer:
		return target == ErrServer
	}
	return false
}

func validationError(op string, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: fmt.Sprintf(format, args...)}
}

func invalidStateError(op string, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Op: op, Message: fmt.Sprintf(format, args...)}
}

func outOfRangeError(op string, v any, typ DataType) *Error {
	return &Error{
		Kind:    KindValidation,
		Op:      op,
		Message: fmt.Sprintf("%v does not fit in %s", v, typ),
		Cause:   ErrOutOfRange,
	}
}

// serverError converts a non-OK response header into an Error.
func serverError(op string, code uint32, msg string) *Error {
	return &Error{Kind: KindServer, Op: op, Code: code, Message: msg}
}

// rpcError classifies an error returned by the gRPC channel. Errors are
// wrapped, never retried.
func rpcError(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}

	st, ok := status.FromError(err)
	if !ok {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return &Error{Kind: KindTimeout, Op: op, Message: "deadline exceeded", Cause: err}
		case errors.Is(err, context.Canceled):
			return &Error{Kind: KindTransport, Op: op, Message: "canceled", Cause: err}
		default:
			return &Error{Kind: KindTransport, Op: op, Message: "rpc failed", Cause: err}
		}
	}

	kind := KindServer
	switch st.Code() {
	case codes.DeadlineExceeded:
		kind = KindTimeout
	case codes.Unavailable:
		kind = KindConnection
	case codes.ResourceExhausted, codes.Unimplemented:
		kind = KindTransport
	case codes.Canceled:
		kind = KindTransport
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			kind = KindTimeout
		}
	case codes.Internal:
		// grpc reports local codec and framing failures as Internal
		if isFramingMessage(st.Message()) {
			kind = KindTransport
		}
	}
	return &Error{
		Kind:    kind,
		Op:      op,
		Code:    uint32(st.Code()),
		Message: st.Message(),
		Cause:   err,
	}
}

func isFramingMessage(msg string) bool {
	for _, prefix := range []string{"grpc: error while marshaling", "grpc: failed to unmarshal", "grpc: error unmarshalling"} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}
