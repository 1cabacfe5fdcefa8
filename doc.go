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

/*
Package ceresdb provides a lightweight client for reading and writing a CeresDB time-series database over gRPC.

# Client

Use NewBuilder to configure and build a client. This is the major entrance to construct structs for interacting with CeresDB:

	client, err := ceresdb.NewBuilder("127.0.0.1:8831").
		RpcConfig(ceresdb.DefaultRpcConfig()).
		DefaultDatabase("public").
		Build()
	if err != nil {
		return err
	}
	defer client.Close()

The channel is connected lazily; an unreachable server is reported by the first call.

# Write Points

Build points with a PointBuilder and submit them in a WriteRequest:

	vb := ceresdb.NewValueBuilder()
	point, err := ceresdb.NewPointBuilder("demo").
		Timestamp(time.Now().UnixMilli()).
		Tag("name", vb.String("test_tag1")).
		Field("value", vb.Double(0.4242)).
		Build()
	if err != nil {
		return err
	}

	req := ceresdb.NewWriteRequest()
	if err := req.AddPoint(point); err != nil {
		return err
	}
	resp, err := client.Write(ctx, ceresdb.NewRpcContext(), req)

Points refused by the server are counted in WriteResponse.Failed and are not an error.

Use a WriteCable to batch points sent from many goroutines:

	cable := client.WriteCable(ceresdb.NewRpcContext())
	cable.Start(ctx)
	defer cable.Close()

	res := <-cable.Send(point)

# Query Data

Execute a SQL statement and read its rows by index or by column name:

	resp, err := client.Query(ctx, ceresdb.NewRpcContext(), ceresdb.NewSqlQueryRequest(`SELECT * FROM demo`, "demo"))
	if err != nil {
		return err
	}
	for _, row := range resp.Rows() {
		col, err := row.ColumnByName("value")
		...
	}

# Errors

Every failure is an *Error. Use errors.Is with ErrValidation, ErrInvalidState, ErrConnection, ErrTimeout, ErrTransport or ErrServer to tell them apart.
*/
package ceresdb
