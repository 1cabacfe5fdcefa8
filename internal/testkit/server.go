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

// Package testkit runs an in-process storage service for tests.
package testkit

import (
	"bytes"
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/ceresdb/ceresdb-client-go/internal/wire"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Request is what the server saw of one call.
type Request struct {
	Method    string
	Database  string
	RequestID string
	Tables    []string
	Points    int
}

// QueryHandler answers SqlQuery calls in place of the default handler.
type QueryHandler func(ctx context.Context, req *wire.SqlQueryRequest) (*wire.SqlQueryResponse, error)

// Server is a fake storage service keeping written rows in memory.
//
// Writes are stored per table as Arrow records. The default query handler
// returns the stored rows of the single table named in the request's
// tables hint, regardless of the SQL text.
type Server struct {
	t   testing.TB
	lis net.Listener
	srv *grpc.Server

	mu       sync.Mutex
	tables   map[string][]arrow.Record
	requests []Request
	rejected map[string]bool
	delay    time.Duration
	failure  error
	header   *wire.ResponseHeader
	onQuery  QueryHandler
}

type storageServer interface {
	write(ctx context.Context, req *wire.WriteRequest) (*wire.WriteResponse, error)
	sqlQuery(ctx context.Context, req *wire.SqlQueryRequest) (*wire.SqlQueryResponse, error)
}

var _ storageServer = (*Server)(nil)

var serviceDesc = grpc.ServiceDesc{
	ServiceName: wire.ServiceName,
	HandlerType: (*storageServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Write",
			Handler: func(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
				in := new(wire.WriteRequest)
				if err := dec(in); err != nil {
					return nil, err
				}
				return srv.(storageServer).write(ctx, in)
			},
		},
		{
			MethodName: "SqlQuery",
			Handler: func(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
				in := new(wire.SqlQueryRequest)
				if err := dec(in); err != nil {
					return nil, err
				}
				return srv.(storageServer).sqlQuery(ctx, in)
			},
		},
	},
	Streams: []grpc.StreamDesc{},
}

// NewServer starts a server on a loopback port. It is stopped when the
// test finishes.
func NewServer(t testing.TB, opts ...grpc.ServerOption) *Server {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	opts = append([]grpc.ServerOption{
		grpc.ForceServerCodec(wire.Codec{}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             time.Millisecond,
			PermitWithoutStream: true,
		}),
	}, opts...)

	s := &Server{
		t:        t,
		lis:      lis,
		srv:      grpc.NewServer(opts...),
		tables:   make(map[string][]arrow.Record),
		rejected: make(map[string]bool),
	}
	s.srv.RegisterService(&serviceDesc, s)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.srv.Serve(lis)
	}()
	t.Cleanup(func() {
		s.srv.Stop()
		<-done
		s.release()
	})
	return s
}

// Endpoint returns the host:port the server listens on.
func (s *Server) Endpoint() string {
	return s.lis.Addr().String()
}

// Reject makes the server count every point of table as failed.
func (s *Server) Reject(table string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected[table] = true
}

// SetDelay delays every response by d, or until the call is canceled.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// SetFailure makes every call fail with err, typically a status error.
// A nil err clears the failure.
func (s *Server) SetFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
}

// SetHeader makes every call answer with header and no payload. A nil
// header clears it.
func (s *Server) SetHeader(header *wire.ResponseHeader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.header = header
}

// OnQuery replaces the default query handler.
func (s *Server) OnQuery(h QueryHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onQuery = h
}

// Requests returns the calls seen so far in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Records returns the records stored for table. They stay owned by the
// server.
func (s *Server) Records(table string) []arrow.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]arrow.Record(nil), s.tables[table]...)
}

// NumRows returns the number of rows stored for table.
func (s *Server) NumRows(table string) int {
	n := 0
	for _, rec := range s.Records(table) {
		n += int(rec.NumRows())
	}
	return n
}

func (s *Server) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, recs := range s.tables {
		for _, rec := range recs {
			rec.Release()
		}
		delete(s.tables, name)
	}
}

// before records the call and applies the delay and injected failures.
func (s *Server) before(ctx context.Context, r Request) (*wire.ResponseHeader, error) {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(wire.RequestIDKey); len(ids) > 0 {
			r.RequestID = ids[0]
		}
	}

	s.mu.Lock()
	s.requests = append(s.requests, r)
	delay, failure, header := s.delay, s.failure, s.header
	s.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, status.FromContextError(ctx.Err()).Err()
		}
	}
	return header, failure
}

func (s *Server) write(ctx context.Context, req *wire.WriteRequest) (*wire.WriteResponse, error) {
	r := Request{Method: wire.WriteMethod}
	if req.Context != nil {
		r.Database = req.Context.Database
	}

	var decoded []tableRecords
	for _, batch := range req.Batches {
		records, err := decodeRecords(batch.Rows)
		if err != nil {
			releaseAll(decoded...)
			return nil, status.Errorf(codes.InvalidArgument, "table %s: %v", batch.Table, err)
		}
		r.Tables = append(r.Tables, batch.Table)
		for _, rec := range records {
			r.Points += int(rec.NumRows())
		}
		decoded = append(decoded, tableRecords{table: batch.Table, records: records})
	}

	header, err := s.before(ctx, r)
	if err != nil || header != nil {
		releaseAll(decoded...)
		if err != nil {
			return nil, err
		}
		return &wire.WriteResponse{Header: header}, nil
	}

	resp := &wire.WriteResponse{Header: &wire.ResponseHeader{Code: wire.CodeOK}}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range decoded {
		for _, rec := range d.records {
			if s.rejected[d.table] {
				resp.Failed += uint32(rec.NumRows())
				rec.Release()
				continue
			}
			resp.Success += uint32(rec.NumRows())
			s.tables[d.table] = append(s.tables[d.table], rec)
		}
	}
	return resp, nil
}

func (s *Server) sqlQuery(ctx context.Context, req *wire.SqlQueryRequest) (*wire.SqlQueryResponse, error) {
	r := Request{Method: wire.SqlQueryMethod, Tables: req.Tables}
	if req.Context != nil {
		r.Database = req.Context.Database
	}
	header, err := s.before(ctx, r)
	if err != nil {
		return nil, err
	}
	if header != nil {
		return &wire.SqlQueryResponse{Header: header}, nil
	}

	s.mu.Lock()
	h := s.onQuery
	s.mu.Unlock()
	if h != nil {
		return h(ctx, req)
	}

	if len(req.Tables) != 1 {
		return &wire.SqlQueryResponse{Header: &wire.ResponseHeader{
			Code:  wire.CodeBadRequest,
			Error: "exactly one table expected in the tables hint",
		}}, nil
	}
	records := s.Records(req.Tables[0])
	if len(records) == 0 {
		return &wire.SqlQueryResponse{Header: &wire.ResponseHeader{
			Code:  wire.CodeNotFound,
			Error: "table not found: " + req.Tables[0],
		}}, nil
	}

	schema := records[0].Schema()
	same := records[:0:0]
	for _, rec := range records {
		if rec.Schema().Equal(schema) {
			same = append(same, rec)
		}
	}
	rows, err := EncodeRows(schema, same...)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &wire.SqlQueryResponse{
		Header: &wire.ResponseHeader{Code: wire.CodeOK},
		Rows:   rows,
	}, nil
}

// EncodeRows encodes records as one Arrow IPC stream.
func EncodeRows(schema *arrow.Schema, records ...arrow.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(schema))
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRecords(data []byte) ([]arrow.Record, error) {
	reader, err := ipc.NewReader(bytes.NewReader(data), ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		return nil, err
	}
	defer reader.Release()

	var records []arrow.Record
	for reader.Next() {
		rec := reader.Record()
		rec.Retain()
		records = append(records, rec)
	}
	if err := reader.Err(); err != nil {
		for _, rec := range records {
			rec.Release()
		}
		return nil, err
	}
	return records, nil
}

type tableRecords struct {
	table   string
	records []arrow.Record
}

func releaseAll(decoded ...tableRecords) {
	for _, d := range decoded {
		for _, rec := range d.records {
			rec.Release()
		}
	}
}
