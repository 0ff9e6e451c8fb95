package provision

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults for directory built-ins. Both are overridable through Settings.
const (
	// DefaultAllUsersGroup is the directory's built-in group every account
	// belongs to by default.
	DefaultAllUsersGroup = "Domain Users"
	// DefaultNoServiceGroup is the sentinel primary group meaning "no
	// mailbox, no interactive logon". Matching is case-insensitive.
	DefaultNoServiceGroup = "noservice"
)

// DirectorySettings configures the LDAP directory connection.
type DirectorySettings struct {
	// Server is the directory URL, e.g. "ldaps://dc1.example.com:636".
	Server string `yaml:"server"`
	// BaseDN is the search base for lookups, e.g. "DC=example,DC=com".
	BaseDN string `yaml:"base_dn"`
	// BindDN and BindPassword are the service credentials.
	BindDN       string `yaml:"bind_dn"`
	BindPassword string `yaml:"bind_password"`
	// UserPrincipalSuffix is appended to usernames to form the
	// userPrincipalName, e.g. "@example.com".
	UserPrincipalSuffix string `yaml:"user_principal_suffix"`
}

// Settings is the tool configuration loaded from YAML.
type Settings struct {
	Directory DirectorySettings `yaml:"directory"`

	// Groups is the ordered group placement policy.
	Groups PolicyTable `yaml:"groups"`

	// AllUsersGroup names the directory's built-in all-users group.
	AllUsersGroup string `yaml:"all_users_group"`
	// NoServiceGroup names the sentinel primary group.
	NoServiceGroup string `yaml:"no_service_group"`
	// LogonScript is assigned to every account except sentinel-group ones.
	LogonScript string `yaml:"logon_script"`
	// MailboxCommand is the external mailbox provisioning executable.
	MailboxCommand string `yaml:"mailbox_command"`
}

// LoadSettings reads and validates a Settings file.
func LoadSettings(path string) (*Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	settings := &Settings{
		AllUsersGroup:  DefaultAllUsersGroup,
		NoServiceGroup: DefaultNoServiceGroup,
	}
	if err := yaml.Unmarshal(raw, settings); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", path, err)
	}

	if settings.Directory.Server == "" {
		return nil, fmt.Errorf("settings %s: directory.server must be set", path)
	}
	if settings.Directory.BaseDN == "" {
		return nil, fmt.Errorf("settings %s: directory.base_dn must be set", path)
	}

	return settings, nil
}

// Option is a functional option for configuring a Provisioner.
type Option func(*Provisioner)

// WithLogger sets a custom structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provisioner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMailboxProvisioner sets the mailbox handoff collaborator. Without one,
// runs that would provision a mailbox fail the handoff as best-effort.
func WithMailboxProvisioner(m MailboxProvisioner) Option {
	return func(p *Provisioner) {
		p.mailbox = m
	}
}

// WithDryRun logs the operations a run would perform without calling any
// directory or mailbox writer.
func WithDryRun() Option {
	return func(p *Provisioner) {
		p.dryRun = true
	}
}

// WithAllUsersGroup overrides the built-in all-users group name.
func WithAllUsersGroup(group string) Option {
	return func(p *Provisioner) {
		if group != "" {
			p.allUsersGroup = group
		}
	}
}

// WithNoServiceGroup overrides the sentinel no-service group name.
func WithNoServiceGroup(group string) Option {
	return func(p *Provisioner) {
		if group != "" {
			p.noServiceGroup = group
		}
	}
}

// WithLogonScript sets the logon script assigned at account creation.
func WithLogonScript(script string) Option {
	return func(p *Provisioner) {
		p.logonScript = script
	}
}
