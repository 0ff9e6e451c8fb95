package provision

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyResolverResolve(t *testing.T) {
	table := PolicyTable{
		{Group: DefaultGroupMarker, OU: "OU=Default,DC=example,DC=com"},
		{Group: "Sales", OU: "OU=Sales,DC=example,DC=com", Implied: []string{"VPN"}},
		{Group: "Sales", OU: "OU=ShadowedSales,DC=example,DC=com", Implied: []string{"Shadowed"}},
	}
	resolver := NewPolicyResolver(table)

	tests := []struct {
		name            string
		primaryGroup    string
		expectedOU      string
		expectedImplied []string
	}{
		{
			name:            "specific match overrides default and stops scanning",
			primaryGroup:    "Sales",
			expectedOU:      "OU=Sales,DC=example,DC=com",
			expectedImplied: []string{"VPN"},
		},
		{
			name:         "unknown group falls back to default with no implied groups",
			primaryGroup: "Unknown",
			expectedOU:   "OU=Default,DC=example,DC=com",
		},
		{
			name:         "matching is case-sensitive",
			primaryGroup: "sales",
			expectedOU:   "OU=Default,DC=example,DC=com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := resolver.Resolve(tt.primaryGroup)
			assert.Equal(t, tt.expectedOU, p.OU)
			assert.Equal(t, tt.expectedImplied, p.Implied)
		})
	}
}

func TestPolicyResolverNoDefaultEntry(t *testing.T) {
	resolver := NewPolicyResolver(PolicyTable{
		{Group: "Sales", OU: "OU=Sales,DC=example,DC=com"},
	})

	p := resolver.Resolve("Unknown")
	assert.Empty(t, p.OU)
	assert.Empty(t, p.Implied)
}

func TestPolicyResolverEmptyTable(t *testing.T) {
	p := NewPolicyResolver(nil).Resolve("Sales")
	assert.Empty(t, p.OU)
	assert.Empty(t, p.Implied)
}

func TestLoadPolicyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groups.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`groups:
  - group: "*"
    ou: OU=Default,DC=example,DC=com
  - group: Sales
    ou: OU=Sales,DC=example,DC=com
    implied: [VPN, CRM]
`), 0o600))

	table, err := LoadPolicyTable(path)
	require.NoError(t, err)
	require.Len(t, table, 2)
	assert.Equal(t, DefaultGroupMarker, table[0].Group)
	assert.Equal(t, PolicyEntry{
		Group:   "Sales",
		OU:      "OU=Sales,DC=example,DC=com",
		Implied: []string{"VPN", "CRM"},
	}, table[1])
}

func TestLoadPolicyTableErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPolicyTable(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "groups.yaml")
		require.NoError(t, os.WriteFile(path, []byte("groups: [a: b"), 0o600))
		_, err := LoadPolicyTable(path)
		assert.Error(t, err)
	})
}
