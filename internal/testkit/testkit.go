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

package testkit

import (
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/lucasepe/codename"
	"github.com/stretchr/testify/require"
)

// RandomName generates a random name usable as a table or column name.
func RandomName(t testing.TB) string {
	rng, err := codename.DefaultRNG()
	require.NoError(t, err)
	return strings.ReplaceAll(codename.Generate(rng, 10), "-", "_")
}

// Faker returns a seeded faker so failing runs can be replayed.
func Faker(t testing.TB, seed uint64) *gofakeit.Faker {
	t.Logf("faker seed: %d", seed)
	return gofakeit.New(seed)
}
