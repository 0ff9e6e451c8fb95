package provision

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultGroupMarker is the policy-table group name that matches any primary
// group not matched by a specific entry.
const DefaultGroupMarker = "*"

// PolicyEntry maps a primary group to its organizational placement.
type PolicyEntry struct {
	// Group is the primary group name, or DefaultGroupMarker for the
	// fallback entry. Matching is case-sensitive.
	Group string `yaml:"group"`
	// OU is the organizational unit path accounts with this primary group
	// are placed under.
	OU string `yaml:"ou"`
	// Implied lists secondary groups every member of Group also joins.
	Implied []string `yaml:"implied,omitempty"`
}

// PolicyTable is the ordered group placement policy. Order matters: the
// resolver honors the first specific match only.
type PolicyTable []PolicyEntry

// Placement is the result of resolving a primary group against the table.
type Placement struct {
	// OU is the resolved organizational unit, possibly empty when the table
	// has neither a specific match nor a default entry.
	OU string
	// Implied holds the secondary groups implied by the matched entry, in
	// declared order. Empty when only the default matched.
	Implied []string
}

// PolicyResolver resolves organizational placement from an immutable policy
// table fixed at construction time.
type PolicyResolver struct {
	table PolicyTable
}

// NewPolicyResolver creates a resolver over the given table. The table is
// not copied; callers must not mutate it afterwards.
func NewPolicyResolver(table PolicyTable) *PolicyResolver {
	return &PolicyResolver{table: table}
}

// Resolve scans the table once, in declared order. The default entry's OU
// applies first and is overwritten by the first entry whose group name
// case-sensitively equals primaryGroup; scanning stops at that match. Only a
// specific match contributes implied groups.
func (r *PolicyResolver) Resolve(primaryGroup string) Placement {
	var p Placement

	for _, entry := range r.table {
		if entry.Group == DefaultGroupMarker {
			p.OU = entry.OU
			continue
		}
		if entry.Group == primaryGroup {
			p.OU = entry.OU
			p.Implied = append([]string(nil), entry.Implied...)
			break
		}
	}

	return p
}

// LoadPolicyTable reads an ordered policy table from a YAML file.
//
// Example:
//
//	groups:
//	  - group: "*"
//	    ou: OU=Staff,DC=example,DC=com
//	  - group: Sales
//	    ou: OU=Sales,DC=example,DC=com
//	    implied: [VPN]
func LoadPolicyTable(path string) (PolicyTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy table: %w", err)
	}

	var doc struct {
		Groups PolicyTable `yaml:"groups"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing policy table %s: %w", path, err)
	}

	return doc.Groups, nil
}
