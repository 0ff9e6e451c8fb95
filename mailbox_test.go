package provision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMailboxPayload(t *testing.T) {
	tests := []struct {
		name          string
		lists         string
		expectedLists []string
	}{
		{
			name:          "comma separated lists",
			lists:         "all@example.com,sales@example.com",
			expectedLists: []string{"all@example.com", "sales@example.com"},
		},
		{
			name:          "empty entries trimmed",
			lists:         "all@example.com,, sales@example.com ,",
			expectedLists: []string{"all@example.com", "sales@example.com"},
		},
		{
			name:          "empty string yields empty list",
			lists:         "",
			expectedLists: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := BuildMailboxPayload("jdoe@example.com", "s3cret", tt.lists)
			assert.Equal(t, "jdoe@example.com", payload.EmailAddress)
			assert.Equal(t, "s3cret", payload.EmailPassword)
			assert.Equal(t, tt.expectedLists, payload.DistributionLists)
		})
	}
}

func TestMailboxPayloadEncode(t *testing.T) {
	payload := BuildMailboxPayload("jdoe@example.com", "s3cret", "all@example.com")

	encoded, err := payload.Encode()
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "jdoe@example.com", decoded["emailAddress"])
	assert.Equal(t, "s3cret", decoded["emailPassword"])
	assert.Equal(t, []any{"all@example.com"}, decoded["distributionLists"])
}

func TestMailboxPayloadEncodeEmptyListsStaysArray(t *testing.T) {
	encoded, err := BuildMailboxPayload("jdoe@example.com", "s3cret", "").Encode()
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"distributionLists":[]`)
}

func TestExecMailboxProvisioner(t *testing.T) {
	t.Run("command output is returned", func(t *testing.T) {
		p := &ExecMailboxProvisioner{Command: "echo"}
		output, err := p.Provision(context.Background(), BuildMailboxPayload("jdoe@example.com", "s3cret", ""))
		require.NoError(t, err)
		assert.NotEmpty(t, output)
	})

	t.Run("missing command", func(t *testing.T) {
		p := &ExecMailboxProvisioner{Command: "/nonexistent/mailbox-provisioner"}
		_, err := p.Provision(context.Background(), BuildMailboxPayload("jdoe@example.com", "s3cret", ""))
		assert.ErrorIs(t, err, ErrMailboxProvisioningFailed)
	})
}
