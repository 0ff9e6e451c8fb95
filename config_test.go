package provision

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "adprov.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadSettings(t *testing.T) {
	path := writeSettings(t, `directory:
  server: ldaps://dc1.example.com:636
  base_dn: DC=example,DC=com
  bind_dn: CN=svc-prov,OU=Service,DC=example,DC=com
  bind_password: hunter2
  user_principal_suffix: "@example.com"
groups:
  - group: "*"
    ou: OU=Staff,DC=example,DC=com
  - group: Sales
    ou: OU=Sales,DC=example,DC=com
    implied: [VPN]
logon_script: logon.bat
mailbox_command: /usr/local/sbin/mailprov
`)

	settings, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "ldaps://dc1.example.com:636", settings.Directory.Server)
	assert.Equal(t, "DC=example,DC=com", settings.Directory.BaseDN)
	assert.Equal(t, "@example.com", settings.Directory.UserPrincipalSuffix)
	require.Len(t, settings.Groups, 2)
	assert.Equal(t, []string{"VPN"}, settings.Groups[1].Implied)
	assert.Equal(t, "logon.bat", settings.LogonScript)
	assert.Equal(t, "/usr/local/sbin/mailprov", settings.MailboxCommand)

	// Built-in group names default when not configured.
	assert.Equal(t, DefaultAllUsersGroup, settings.AllUsersGroup)
	assert.Equal(t, DefaultNoServiceGroup, settings.NoServiceGroup)
}

func TestLoadSettingsOverridesBuiltins(t *testing.T) {
	path := writeSettings(t, `directory:
  server: ldap://dc1.example.com:389
  base_dn: DC=example,DC=com
all_users_group: Everyone
no_service_group: nomail
`)

	settings, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "Everyone", settings.AllUsersGroup)
	assert.Equal(t, "nomail", settings.NoServiceGroup)
}

func TestLoadSettingsErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "missing server",
			content: "directory:\n  base_dn: DC=example,DC=com\n",
		},
		{
			name:    "missing base dn",
			content: "directory:\n  server: ldap://dc1.example.com\n",
		},
		{
			name:    "invalid yaml",
			content: "directory: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSettings(writeSettings(t, tt.content))
			assert.Error(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSettings(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}
