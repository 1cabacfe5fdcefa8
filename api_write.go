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

	"github.com/ceresdb/ceresdb-client-go/internal/wire"
)

// writeAPI defines the write RPC of the storage service.
type writeAPI interface {
	// write submits a batch of encoded points.
	write(ctx context.Context, req *wire.WriteRequest) (*wire.WriteResponse, error)
}

func (s *grpcStorage) write(ctx context.Context, req *wire.WriteRequest) (*wire.WriteResponse, error) {
	var resp wire.WriteResponse
	if err := s.conn.Invoke(ctx, wire.WriteMethod, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// encodeWriteRequest turns points into table batches, preserving order.
func encodeWriteRequest(db string, points []*Point) (*wire.WriteRequest, error) {
	groups, err := groupPoints(points)
	if err != nil {
		return nil, err
	}
	req := &wire.WriteRequest{
		Context: &wire.RequestContext{Database: db},
		Batches: make([]*wire.TableBatch, 0, len(groups)),
	}
	for _, g := range groups {
		rows, err := g.encode()
		if err != nil {
			return nil, err
		}
		req.Batches = append(req.Batches, &wire.TableBatch{Table: g.table, Rows: rows})
	}
	return req, nil
}

// Write submits all points of req in one call within the effective write
// timeout.
//
// The request is frozen by this call whatever its outcome. Points the
// server refused are counted in WriteResponse.Failed and are not an error;
// some points may have been applied even when an error is returned.
func (c *Client) Write(ctx context.Context, rpcCtx RpcContext, req *WriteRequest) (*WriteResponse, error) {
	const op = "write"
	if req == nil || req.Len() == 0 {
		return nil, validationError(op, "write request has no points")
	}
	db, err := c.database(op, rpcCtx)
	if err != nil {
		return nil, err
	}

	points := req.freeze()
	wreq, err := encodeWriteRequest(db, points)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Op: op, Message: "encode points", Cause: err}
	}

	var out *WriteResponse
	err = c.call(ctx, op, db, rpcCtx.effectiveTimeout(c.config.DefaultWriteTimeout), func(ctx context.Context) error {
		resp, err := c.api.write(ctx, wreq)
		if err != nil {
			return err
		}
		if !resp.Header.OK() {
			return serverError(op, resp.Header.Code, resp.Header.Error)
		}
		out = &WriteResponse{Success: resp.Success, Failed: resp.Failed}
		c.tel.recordWrite(ctx, out)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.Failed > 0 {
		c.log.WithField("database", db).Warnf("ceresdb write partially failed, %s", out)
	}
	if int(out.Total()) != len(points) {
		c.log.WithField("database", db).Warnf("ceresdb write reported %d points, sent %d", out.Total(), len(points))
	}
	return out, nil
}
