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
	"strings"

	"github.com/ceresdb/ceresdb-client-go/internal/wire"
)

// queryAPI defines the SQL RPC of the storage service.
type queryAPI interface {
	// sqlQuery executes one statement and returns all of its rows.
	sqlQuery(ctx context.Context, req *wire.SqlQueryRequest) (*wire.SqlQueryResponse, error)
}

func (s *grpcStorage) sqlQuery(ctx context.Context, req *wire.SqlQueryRequest) (*wire.SqlQueryResponse, error) {
	var resp wire.SqlQueryResponse
	if err := s.conn.Invoke(ctx, wire.SqlQueryMethod, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SqlQueryRequest is one SQL statement.
type SqlQueryRequest struct {
	// Tables optionally lists the tables the statement touches. The server
	// uses it for routing; it is not checked against SQL.
	Tables []string
	SQL    string
}

// NewSqlQueryRequest creates a request for sql touching tables.
func NewSqlQueryRequest(sql string, tables ...string) *SqlQueryRequest {
	return &SqlQueryRequest{Tables: tables, SQL: sql}
}

// Query executes req within the effective query timeout. The response is
// fully read into memory before Query returns.
func (c *Client) Query(ctx context.Context, rpcCtx RpcContext, req *SqlQueryRequest) (*SqlQueryResponse, error) {
	const op = "query"
	if req == nil || strings.TrimSpace(req.SQL) == "" {
		return nil, validationError(op, "sql is empty")
	}
	db, err := c.database(op, rpcCtx)
	if err != nil {
		return nil, err
	}

	qreq := &wire.SqlQueryRequest{
		Context: &wire.RequestContext{Database: db},
		Tables:  append([]string(nil), req.Tables...),
		Sql:     req.SQL,
	}

	var out *SqlQueryResponse
	err = c.call(ctx, op, db, rpcCtx.effectiveTimeout(c.config.DefaultSqlQueryTimeout), func(ctx context.Context) error {
		resp, err := c.api.sqlQuery(ctx, qreq)
		if err != nil {
			return err
		}
		if !resp.Header.OK() {
			return serverError(op, resp.Header.Code, resp.Header.Error)
		}
		res := &SqlQueryResponse{AffectedRows: resp.AffectedRows}
		if err := decodeResultRows(resp.Rows, res); err != nil {
			return &Error{Kind: KindTransport, Op: op, Message: "malformed response rows", Cause: err}
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
