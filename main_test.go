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

package ceresdb_test

import (
	"testing"

	ceresdb "github.com/ceresdb/ceresdb-client-go"
	"github.com/ceresdb/ceresdb-client-go/internal/testkit"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newClient builds a client of srv with "public" as default database.
func newClient(t testing.TB, srv *testkit.Server, conf ceresdb.RpcConfig) *ceresdb.Client {
	c, err := ceresdb.NewBuilder(srv.Endpoint()).
		RpcConfig(conf).
		DefaultDatabase("public").
		Build()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, c.Close())
	})
	return c
}

func newPoint(t testing.TB, table string, ts int64, host string, value float64) *ceresdb.Point {
	vb := ceresdb.NewValueBuilder()
	p, err := ceresdb.NewPointBuilder(table).
		Timestamp(ts).
		Tag("host", vb.String(host)).
		Field("value", vb.Double(value)).
		Build()
	require.NoError(t, err)
	return p
}

func newWriteRequest(t testing.TB, points ...*ceresdb.Point) *ceresdb.WriteRequest {
	req := ceresdb.NewWriteRequest()
	require.NoError(t, req.AddPoints(points...))
	return req
}
