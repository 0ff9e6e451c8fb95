package provision

import (
	"fmt"
	"strconv"
	"strings"
)

// AccountExpiresAttribute is the directory attribute holding the account
// expiration timestamp. The key match is case-sensitive.
const AccountExpiresAttribute = "accountExpires"

// Assignment is a single parsed key=value attribute assignment. Value is
// always the string submitted to the directory; for accountExpires it is the
// converted 64-bit timestamp.
type Assignment struct {
	Key   string
	Value string
}

// ParseAssignments parses an ordered sequence of key=value tokens into
// assignments, preserving input order.
//
// Empty tokens are skipped silently. Each non-empty token is split on its
// first '='; a token without one yields ErrMalformedAssignment. Keys are not
// validated against any schema: the directory service is the final arbiter of
// what it accepts. The single exception is accountExpires, whose value is
// treated as a DD/MM/YYYY date and converted through AccountExpiresFromDate;
// a conversion failure surfaces as ErrInvalidDate.
func ParseAssignments(tokens []string) ([]Assignment, error) {
	assignments := make([]Assignment, 0, len(tokens))

	for _, token := range tokens {
		if token == "" {
			continue
		}

		key, value, found := strings.Cut(token, "=")
		if !found {
			return nil, fmt.Errorf("%w: %q has no '='", ErrMalformedAssignment, token)
		}

		if key == AccountExpiresAttribute {
			ticks, err := AccountExpiresFromDate(value)
			if err != nil {
				return nil, err
			}
			value = strconv.FormatInt(ticks, 10)
		}

		assignments = append(assignments, Assignment{Key: key, Value: value})
	}

	return assignments, nil
}
