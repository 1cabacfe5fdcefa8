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
	"time"
)

// Statement is a SQL statement bound to a client, ready to be executed.
type Statement struct {
	c *Client

	sql string

	// Tables lists the tables the statement touches.
	//
	// This is optional; the server may use it to route the statement.
	Tables []string
	// Database overrides the client default database.
	Database string
	// Timeout is the maximum time to wait for the result.
	//
	// If zero, RpcConfig.DefaultSqlQueryTimeout applies.
	Timeout time.Duration
}

// Statement creates a new statement with the given SQL.
func (c *Client) Statement(sql string) *Statement {
	return &Statement{
		c:   c,
		sql: sql,
	}
}

// SQL returns the statement text.
func (s *Statement) SQL() string {
	return s.sql
}

// Execute runs the statement and returns its complete result.
func (s *Statement) Execute(ctx context.Context) (*SqlQueryResponse, error) {
	rpcCtx := NewRpcContext().WithDatabase(s.Database).WithTimeout(s.Timeout)
	return s.c.Query(ctx, rpcCtx, NewSqlQueryRequest(s.sql, s.Tables...))
}

// Exec runs the statement and returns the number of affected rows. It is
// meant for statements without a result set, e.g. CREATE TABLE or INSERT.
func (s *Statement) Exec(ctx context.Context) (uint32, error) {
	resp, err := s.Execute(ctx)
	if err != nil {
		return 0, err
	}
	return resp.AffectedRows, nil
}
