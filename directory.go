package provision

import "context"

// AccountRequest carries the attributes for directory account creation.
// Password is a write-once secret and must never be logged.
type AccountRequest struct {
	Username    string
	Password    string
	FirstName   string
	Surname     string
	Mail        string
	Title       string
	Company     string
	OU          string
	LogonScript string
}

// AccountCreator creates user accounts in the directory. On success the
// account exists with a directory-assigned distinguished name discoverable
// through DirectoryReader.LookupUserDN.
type AccountCreator interface {
	CreateAccount(ctx context.Context, req AccountRequest) error
}

// GroupMembershipWriter mutates group memberships.
type GroupMembershipWriter interface {
	// AddGroupMember adds the named user to the named group.
	AddGroupMember(ctx context.Context, group, username string) error
	// RemoveGroupMember removes the named user from the named group.
	RemoveGroupMember(ctx context.Context, group, username string) error
}

// DirectoryReader looks up entries created or referenced during a run.
type DirectoryReader interface {
	// LookupUserDN returns the distinguished name of the user entry whose
	// common name equals username, or ErrDNNotFound.
	LookupUserDN(ctx context.Context, username string) (string, error)
	// LookupGroupDescription returns the description attribute of the group
	// entry whose common name equals group. The value may still carry the
	// LDIF "attr:: base64" rendering for binary attributes; callers decode
	// it with DecodeDirectoryValue. Returns ErrMissingDepartment when the
	// group does not exist or has no description.
	LookupGroupDescription(ctx context.Context, group string) (string, error)
}

// AttributeWriter applies attribute replace batches to a directory entry.
type AttributeWriter interface {
	// ModifyAttributes replaces each (key, value) of the batch on the entry
	// identified by dn, as one unit.
	ModifyAttributes(ctx context.Context, dn string, batch []Assignment) error
}

// DirectoryService combines every directory collaborator contract the
// provisioning pipeline needs.
type DirectoryService interface {
	AccountCreator
	GroupMembershipWriter
	DirectoryReader
	AttributeWriter
}

// MailboxProvisioner hands a serialized payload to the external mailbox
// provisioning process. Failures are reported through
// ErrMailboxProvisioningFailed and never abort a run.
type MailboxProvisioner interface {
	Provision(ctx context.Context, payload MailboxPayload) (output string, err error)
}
