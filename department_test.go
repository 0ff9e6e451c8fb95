package provision

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGroupReader struct {
	description string
	err         error
	requested   []string
}

func (s *stubGroupReader) LookupUserDN(ctx context.Context, username string) (string, error) {
	return "", ErrDNNotFound
}

func (s *stubGroupReader) LookupGroupDescription(ctx context.Context, group string) (string, error) {
	s.requested = append(s.requested, group)
	return s.description, s.err
}

func TestDecodeDirectoryValue(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		expected      string
		expectedError bool
	}{
		{
			name:     "base64 rendered value",
			raw:      "description:: " + base64.StdEncoding.EncodeToString([]byte("Engineering")),
			expected: "Engineering",
		},
		{
			name:     "plain rendered value",
			raw:      "description: Engineering",
			expected: "Engineering",
		},
		{
			name:     "bare value",
			raw:      "Engineering",
			expected: "Engineering",
		},
		{
			name:     "surrounding whitespace trimmed",
			raw:      "  description:  Engineering \n",
			expected: "Engineering",
		},
		{
			name:     "value with spaces before a colon is no rendering",
			raw:      "Research and Development: EMEA",
			expected: "Research and Development: EMEA",
		},
		{
			name:     "single-word prefix before a colon is no rendering either",
			raw:      "IT: Operations",
			expected: "IT: Operations",
		},
		{
			name:     "colon without spaces survives unchanged",
			raw:      "R&D:Platform",
			expected: "R&D:Platform",
		},
		{
			name:          "invalid base64 payload",
			raw:           "description:: not-base64!",
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := DecodeDirectoryValue(tt.raw)
			if tt.expectedError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, decoded)
		})
	}
}

func TestDepartmentResolverResolve(t *testing.T) {
	t.Run("plain description", func(t *testing.T) {
		reader := &stubGroupReader{description: "Engineering"}
		department, err := NewDepartmentResolver(reader).Resolve(context.Background(), "Developers")
		require.NoError(t, err)
		assert.Equal(t, "Engineering", department)
		assert.Equal(t, []string{"Developers"}, reader.requested)
	})

	t.Run("base64 description decodes to the same result", func(t *testing.T) {
		reader := &stubGroupReader{
			description: "description:: " + base64.StdEncoding.EncodeToString([]byte("Engineering")),
		}
		department, err := NewDepartmentResolver(reader).Resolve(context.Background(), "Developers")
		require.NoError(t, err)
		assert.Equal(t, "Engineering", department)
	})

	t.Run("group without description is fatal", func(t *testing.T) {
		reader := &stubGroupReader{err: ErrMissingDepartment}
		_, err := NewDepartmentResolver(reader).Resolve(context.Background(), "Unlabeled")
		assert.ErrorIs(t, err, ErrMissingDepartment)
	})

	t.Run("description decoding to empty is fatal", func(t *testing.T) {
		reader := &stubGroupReader{description: "description: "}
		_, err := NewDepartmentResolver(reader).Resolve(context.Background(), "Blank")
		assert.ErrorIs(t, err, ErrMissingDepartment)
	})
}
