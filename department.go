package provision

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// DepartmentResolver derives a new user's department by inheriting the
// description attribute of their primary group.
type DepartmentResolver struct {
	reader DirectoryReader
}

// NewDepartmentResolver creates a resolver over the given directory reader.
func NewDepartmentResolver(reader DirectoryReader) *DepartmentResolver {
	return &DepartmentResolver{reader: reader}
}

// Resolve fetches and decodes the description of primaryGroup.
//
// A group without a description is a policy error: every organizational
// group must carry a department label, so an empty result yields
// ErrMissingDepartment rather than a soft default.
func (r *DepartmentResolver) Resolve(ctx context.Context, primaryGroup string) (string, error) {
	raw, err := r.reader.LookupGroupDescription(ctx, primaryGroup)
	if err != nil {
		return "", err
	}

	department, err := DecodeDirectoryValue(raw)
	if err != nil {
		return "", fmt.Errorf("decoding description of group %q: %w", primaryGroup, err)
	}
	if department == "" {
		return "", fmt.Errorf("%w: group %q", ErrMissingDepartment, primaryGroup)
	}

	return department, nil
}

// descriptionAttribute is the group attribute the department is inherited
// from, and the only prefix DecodeDirectoryValue strips.
const descriptionAttribute = "description"

// DecodeDirectoryValue decodes a description value that may still be in LDIF
// rendering. Directory tooling emits binary values as "description:: <base64>"
// and plain values as "description: <value>". Only these two prefixes are
// recognized; any other value is returned unchanged after trimming, so a
// department whose text happens to contain a colon is never mangled.
func DecodeDirectoryValue(raw string) (string, error) {
	raw = strings.TrimSpace(raw)

	if rest, found := strings.CutPrefix(raw, descriptionAttribute+"::"); found {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(rest))
		if err != nil {
			return "", fmt.Errorf("invalid base64 attribute value: %w", err)
		}
		return string(decoded), nil
	}

	if rest, found := strings.CutPrefix(raw, descriptionAttribute+":"); found {
		return strings.TrimSpace(rest), nil
	}

	return raw, nil
}
