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

package itcases

import (
	"context"
	"fmt"
	"testing"

	ceresdb "github.com/ceresdb/ceresdb-client-go"
	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/require"
)

func TestWriteCable(t *testing.T) {
	c := NewClient(t)
	defer c.Close()

	ctx := context.Background()
	tbl := c.Table(RandomName(t))
	createDemoTable(t, ctx, tbl)
	defer func() {
		require.NoError(t, tbl.Drop(ctx))
	}()

	cable := c.WriteCable(ceresdb.NewRpcContext())
	// immediately flush
	cable.BatchSize = 1

	cable.Start(ctx)
	defer cable.Close()

	for i, name := range []string{"tison", "ceresdb"} {
		p, err := tbl.Point().
			Timestamp(int64(315360000000 + i)).
			Tag("name", ceresdb.String(name)).
			Field("value", ceresdb.Double(27)).
			Build()
		require.NoError(t, err)

		res := <-cable.Send(p)
		require.NoError(t, res.Err)
		require.Equal(t, uint32(1), res.Response.Success)
	}

	result, err := tbl.Statement(fmt.Sprintf(`SELECT t, name, value FROM %s ORDER BY t`, tbl.Identifier())).Execute(ctx)
	require.NoError(t, err)

	values, err := result.ToValues()
	require.NoError(t, err)
	snaps.MatchSnapshot(t, values)
}
