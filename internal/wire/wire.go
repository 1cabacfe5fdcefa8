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

// Package wire defines the messages exchanged with the storage service and
// the gRPC codec and compressors that carry them.
//
// Rows travel as Arrow IPC streams inside JSON envelopes; []byte fields are
// base64 encoded by the codec.
package wire

// Service and method names of the storage service.
const (
	ServiceName    = "ceresdb.storage.StorageService"
	WriteMethod    = "/" + ServiceName + "/Write"
	SqlQueryMethod = "/" + ServiceName + "/SqlQuery"
)

// RequestIDKey is the gRPC metadata key carrying the client request id.
const RequestIDKey = "x-ceresdb-request-id"

// Response header codes.
const (
	CodeOK         uint32 = 200
	CodeBadRequest uint32 = 400
	CodeNotFound   uint32 = 404
	CodeInternal   uint32 = 500
)

type RequestContext struct {
	Database string `json:"database"`
}

type ResponseHeader struct {
	Code  uint32 `json:"code"`
	Error string `json:"error,omitempty"`
}

// OK reports whether the header is absent or carries CodeOK.
func (h *ResponseHeader) OK() bool {
	return h == nil || h.Code == CodeOK || h.Code == 0
}

// TableBatch is one Arrow IPC stream of points of a single table sharing
// one column layout.
type TableBatch struct {
	Table string `json:"table"`
	Rows  []byte `json:"rows"`
}

type WriteRequest struct {
	Context *RequestContext `json:"context"`
	Batches []*TableBatch   `json:"batches"`
}

type WriteResponse struct {
	Header  *ResponseHeader `json:"header"`
	Success uint32          `json:"success"`
	Failed  uint32          `json:"failed"`
}

type SqlQueryRequest struct {
	Context *RequestContext `json:"context"`
	Tables  []string        `json:"tables"`
	Sql     string          `json:"sql"`
}

type SqlQueryResponse struct {
	Header       *ResponseHeader `json:"header"`
	AffectedRows uint32          `json:"affected_rows"`
	// Rows is one Arrow IPC stream; empty for statements returning no rows.
	Rows []byte `json:"rows,omitempty"`
}
