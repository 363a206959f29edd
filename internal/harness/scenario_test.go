package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/partition_basic.yaml")
	require.NoError(t, err)

	assert.Equal(t, "partition_basic", s.Name)
	assert.False(t, s.ViaStore)
	require.Len(t, s.Observations, 3)
	assert.Equal(t, "gmail.1", s.Observations[0].Key())
	assert.Equal(t, "jane@example.com", s.Observations[0].Emails[0].Value)
	require.Len(t, s.Assertions, 4)
	assert.Equal(t, AssertIdentity, s.Assertions[3].Type)
	assert.Equal(t, "Jane Doe", s.Assertions[3].DisplayName)
}

func TestLoadScenario_ViaStoreAndAccounts(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/accounts_and_frecency.yaml")
	require.NoError(t, err)

	assert.True(t, s.ViaStore)
	assert.Equal(t, int64(3), s.Observations[1].Frecency)
	require.Len(t, s.Observations[1].Accounts, 2)
	assert.Equal(t, "github.com:jdoe", s.Observations[1].Accounts[1].Key())
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "misspelled key"
observations:
  - source: a
    id: "1"
assertion:
  - type: group_count
    count: 1
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name: "missing name",
			content: `
description: "x"
observations: [{source: a, id: "1"}]
assertions: [{type: group_count, count: 1}]
`,
			want: "name is required",
		},
		{
			name: "missing description",
			content: `
name: x
observations: [{source: a, id: "1"}]
assertions: [{type: group_count, count: 1}]
`,
			want: "description is required",
		},
		{
			name: "no observations",
			content: `
name: x
description: "x"
assertions: [{type: group_count, count: 1}]
`,
			want: "observations list is required",
		},
		{
			name: "no assertions",
			content: `
name: x
description: "x"
observations: [{source: a, id: "1"}]
`,
			want: "assertions list is required",
		},
		{
			name: "observation without id",
			content: `
name: x
description: "x"
observations: [{source: a}]
assertions: [{type: group_count, count: 1}]
`,
			want: "observations[0]",
		},
		{
			name: "duplicate key",
			content: `
name: x
description: "x"
observations: [{source: a, id: "1"}, {source: a, id: "1"}]
assertions: [{type: group_count, count: 1}]
`,
			want: "duplicate key a.1",
		},
		{
			name: "precomputed sources",
			content: `
name: x
description: "x"
observations: [{sources: [a.1]}]
assertions: [{type: group_count, count: 1}]
`,
			want: "sources are produced by the merge",
		},
		{
			name: "unknown assertion type",
			content: `
name: x
description: "x"
observations: [{source: a, id: "1"}]
assertions: [{type: final_state}]
`,
			want: `unknown type "final_state"`,
		},
		{
			name: "zero group count",
			content: `
name: x
description: "x"
observations: [{source: a, id: "1"}]
assertions: [{type: group_count}]
`,
			want: "count >= 1",
		},
		{
			name: "same_group with one key",
			content: `
name: x
description: "x"
observations: [{source: a, id: "1"}]
assertions: [{type: same_group, keys: [a.1]}]
`,
			want: "at least 2 keys",
		},
		{
			name: "key matches no observation",
			content: `
name: x
description: "x"
observations: [{source: a, id: "1"}, {source: b, id: "1"}]
assertions: [{type: same_group, keys: [a.1, c.1]}]
`,
			want: `key "c.1" matches no observation`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
