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
	"os"
	"testing"

	ceresdb "github.com/ceresdb/ceresdb-client-go"
	"github.com/ceresdb/ceresdb-client-go/internal/testkit"
	"github.com/stretchr/testify/require"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func NewClient(t testing.TB) *ceresdb.Client {
	endpoint := os.Getenv("CERESDB_ENDPOINT")

	if endpoint == "" {
		t.Skip("CERESDB_ENDPOINT not set")
		return nil // unreachable
	}

	database := os.Getenv("CERESDB_DATABASE")
	if database == "" {
		database = "public"
	}

	c, err := ceresdb.NewBuilder(endpoint).
		DefaultDatabase(database).
		Build()
	require.NoError(t, err)
	return c
}

func RandomName(t testing.TB) string {
	return testkit.RandomName(t)
}
