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
	"fmt"
	"sync"
)

// WriteRequest is a batch of points submitted in one RPC call.
//
// Points keep the order they were added in. A request is frozen once it has
// been passed to Client.Write; adding to it afterwards fails.
type WriteRequest struct {
	mu     sync.Mutex
	points []*Point
	frozen bool
}

// NewWriteRequest creates an empty request.
func NewWriteRequest() *WriteRequest {
	return &WriteRequest{}
}

// AddPoint appends one point.
func (r *WriteRequest) AddPoint(p *Point) error {
	return r.AddPoints(p)
}

// AddPoints appends the points in order. It behaves exactly like calling
// AddPoint for each of them: on error, the points before the offending one
// have been added.
func (r *WriteRequest) AddPoints(points ...*Point) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return invalidStateError("write_request.add_point", "request already submitted")
	}
	for i, p := range points {
		if p == nil {
			return validationError("write_request.add_point", "nil point at index %d", i)
		}
		r.points = append(r.points, p)
	}
	return nil
}

// Points returns the points in insertion order.
func (r *WriteRequest) Points() []*Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Point(nil), r.points...)
}

// Len returns the number of points.
func (r *WriteRequest) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.points)
}

// freeze marks the request submitted and returns its points.
func (r *WriteRequest) freeze() []*Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
	return r.points
}

func (r *WriteRequest) String() string {
	return fmt.Sprintf("WriteRequest{points: %d}", r.Len())
}

// WriteResponse reports how many points of one request the server accepted.
// A nonzero Failed is not an error; the caller decides what to do with it.
type WriteResponse struct {
	Success uint32 `json:"success"`
	Failed  uint32 `json:"failed"`
}

// Total returns Success + Failed.
func (r *WriteResponse) Total() uint32 {
	return r.Success + r.Failed
}

// Merge adds the counters of other into r.
func (r *WriteResponse) Merge(other *WriteResponse) {
	if other == nil {
		return
	}
	r.Success += other.Success
	r.Failed += other.Failed
}

func (r *WriteResponse) String() string {
	return fmt.Sprintf("success:%d, failed:%d", r.Success, r.Failed)
}
