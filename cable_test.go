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
	"context"
	"testing"
	"time"

	ceresdb "github.com/ceresdb/ceresdb-client-go"
	"github.com/ceresdb/ceresdb-client-go/internal/testkit"
	"github.com/stretchr/testify/require"
)

func TestWriteCableBatchSize(t *testing.T) {
	srv := testkit.NewServer(t)
	c := newClient(t, srv, ceresdb.DefaultRpcConfig())

	cable := c.WriteCable(ceresdb.NewRpcContext())
	cable.BatchSize = 2
	cable.BatchInterval = time.Hour
	cable.Start(context.Background())

	var results []<-chan *ceresdb.CableResult
	for i := 0; i < 4; i++ {
		results = append(results, cable.Send(newPoint(t, "m", int64(i), "h", float64(i))))
	}
	for _, ch := range results {
		res := <-ch
		require.NoError(t, res.Err)
		require.Equal(t, uint32(2), res.Response.Success)
	}
	cable.Close()

	require.Equal(t, 4, srv.NumRows("m"))
	require.Len(t, srv.Requests(), 2)
}

func TestWriteCableInterval(t *testing.T) {
	srv := testkit.NewServer(t)
	c := newClient(t, srv, ceresdb.DefaultRpcConfig())

	cable := c.WriteCable(ceresdb.NewRpcContext())
	cable.BatchSize = 1024
	cable.BatchInterval = 10 * time.Millisecond
	cable.Start(context.Background())
	defer cable.Close()

	select {
	case res := <-cable.Send(newPoint(t, "m", 1, "h", 1)):
		require.NoError(t, res.Err)
		require.Equal(t, uint32(1), res.Response.Success)
	case <-time.After(5 * time.Second):
		t.Fatal("cable did not flush on interval")
	}
}

func TestWriteCableCloseFlushes(t *testing.T) {
	srv := testkit.NewServer(t)
	c := newClient(t, srv, ceresdb.DefaultRpcConfig())

	cable := c.WriteCable(ceresdb.NewRpcContext())
	cable.BatchSize = 1024
	cable.BatchInterval = time.Hour
	cable.Start(context.Background())

	ch := cable.Send(newPoint(t, "m", 1, "h", 1))
	cable.Close()

	res := <-ch
	require.NoError(t, res.Err)
	require.Equal(t, 1, srv.NumRows("m"))

	res = <-cable.Send(newPoint(t, "m", 2, "h", 1))
	require.ErrorIs(t, res.Err, ceresdb.ErrInvalidState)

	res = <-cable.Send(nil)
	require.ErrorIs(t, res.Err, ceresdb.ErrValidation)
}

func TestWriteCableReportsFailures(t *testing.T) {
	srv := testkit.NewServer(t)
	c := newClient(t, srv, ceresdb.DefaultRpcConfig())
	srv.Reject("readonly")

	cable := c.WriteCable(ceresdb.NewRpcContext().WithDatabase("other"))
	cable.BatchSize = 2
	cable.Start(context.Background())
	defer cable.Close()

	ch1 := cable.Send(newPoint(t, "m", 1, "h", 1))
	ch2 := cable.Send(newPoint(t, "readonly", 2, "h", 1))
	res1, res2 := <-ch1, <-ch2
	require.Same(t, res1, res2)
	require.NoError(t, res1.Err)
	require.Equal(t, &ceresdb.WriteResponse{Success: 1, Failed: 1}, res1.Response)
	require.Equal(t, "other", srv.Requests()[0].Database)
}

func TestWriteCableZeroSettings(t *testing.T) {
	srv := testkit.NewServer(t)
	c := newClient(t, srv, ceresdb.DefaultRpcConfig())

	cable := c.WriteCable(ceresdb.NewRpcContext())
	cable.BatchSize = 0
	cable.BatchInterval = 0
	cable.Start(context.Background())
	require.Equal(t, ceresdb.DefaultCableBatchSize, cable.BatchSize)
	require.Equal(t, ceresdb.DefaultCableBatchInterval, cable.BatchInterval)

	// an idle loop must not flush empty batches
	time.Sleep(50 * time.Millisecond)
	require.Empty(t, srv.Requests())

	ch := cable.Send(newPoint(t, "m", 1, "h", 1))
	cable.Close()

	res := <-ch
	require.NoError(t, res.Err)
	require.Equal(t, uint32(1), res.Response.Success)
	require.Len(t, srv.Requests(), 1)
}

func TestWriteCableSendBeforeStart(t *testing.T) {
	srv := testkit.NewServer(t)
	c := newClient(t, srv, ceresdb.DefaultRpcConfig())

	cable := c.WriteCable(ceresdb.NewRpcContext())
	select {
	case res := <-cable.Send(newPoint(t, "m", 1, "h", 1)):
		require.ErrorIs(t, res.Err, ceresdb.ErrInvalidState)
	case <-time.After(5 * time.Second):
		t.Fatal("send before start blocked")
	}

	cable.Close()
	cable.Start(context.Background())
	res := <-cable.Send(newPoint(t, "m", 1, "h", 1))
	require.ErrorIs(t, res.Err, ceresdb.ErrInvalidState)
	require.Empty(t, srv.Requests())
}
