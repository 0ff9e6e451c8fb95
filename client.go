package provision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-ldap/ldap/v3"
	"golang.org/x/text/encoding/unicode"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// ErrPasswordRequiresLDAPS is returned when account creation with an initial
// password is attempted over an unencrypted connection. Active Directory
// only accepts the unicodePwd attribute over LDAPS.
var ErrPasswordRequiresLDAPS = errors.New("setting an initial password requires an ldaps:// connection")

// userAccountControl value for a normal, enabled account.
// Reference: https://docs.microsoft.com/en-us/windows/win32/adschema/a-useraccountcontrol
const uacNormalAccount = "512"

// LDAPDirectory implements DirectoryService against an LDAP server via
// go-ldap. Each operation opens a short-lived bound connection; the pipeline
// is strictly sequential, so no pooling is involved.
type LDAPDirectory struct {
	settings DirectorySettings
	logger   *slog.Logger
}

// NewLDAPDirectory creates a directory collaborator for the given settings.
func NewLDAPDirectory(settings DirectorySettings, logger *slog.Logger) (*LDAPDirectory, error) {
	if settings.Server == "" {
		return nil, errors.New("server URL cannot be empty")
	}
	if settings.BaseDN == "" {
		return nil, errors.New("base DN cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &LDAPDirectory{settings: settings, logger: logger}, nil
}

func (d *LDAPDirectory) getConnection(ctx context.Context) (*ldap.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	c, err := ldap.DialURL(d.settings.Server)
	if err != nil {
		d.logger.Error("ldap_dial_failed",
			slog.String("server", d.settings.Server),
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("connecting to %s: %w", d.settings.Server, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		c.SetTimeout(time.Until(deadline))
	}

	if err := c.Bind(d.settings.BindDN, d.settings.BindPassword); err != nil {
		c.Close()
		d.logger.Error("ldap_bind_failed",
			slog.String("server", d.settings.Server),
			slog.String("bind_dn", d.settings.BindDN),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("binding as %s: %w", d.settings.BindDN, err)
	}

	return c, nil
}

func (d *LDAPDirectory) isLDAPS() bool {
	return strings.HasPrefix(strings.ToLower(d.settings.Server), "ldaps://")
}

// CreateAccount creates a user entry under req.OU with the given names,
// mail, title, company and logon script. The initial password is set through
// the Microsoft-specific unicodePwd attribute with UTF-16LE encoding, which
// requires LDAPS.
// Reference: https://learn.microsoft.com/en-us/troubleshoot/windows-server/identity/set-user-password-with-ldifde
func (d *LDAPDirectory) CreateAccount(ctx context.Context, req AccountRequest) error {
	if req.Password != "" && !d.isLDAPS() {
		return ErrPasswordRequiresLDAPS
	}

	c, err := d.getConnection(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	container := req.OU
	if container == "" {
		container = d.settings.BaseDN
	}
	dn := fmt.Sprintf("CN=%s,%s", ldap.EscapeDN(req.Username), container)

	add := ldap.NewAddRequest(dn, nil)
	add.Attribute("objectClass", []string{"top", "person", "organizationalPerson", "user"})
	add.Attribute("cn", []string{req.Username})
	add.Attribute("sAMAccountName", []string{req.Username})
	add.Attribute("givenName", []string{req.FirstName})
	add.Attribute("sn", []string{req.Surname})
	add.Attribute("displayName", []string{req.FirstName + " " + req.Surname})
	if d.settings.UserPrincipalSuffix != "" {
		add.Attribute("userPrincipalName", []string{req.Username + d.settings.UserPrincipalSuffix})
	}
	if req.Mail != "" {
		add.Attribute("mail", []string{req.Mail})
	}
	if req.Title != "" {
		add.Attribute("title", []string{req.Title})
	}
	if req.Company != "" {
		add.Attribute("company", []string{req.Company})
	}
	if req.LogonScript != "" {
		add.Attribute("scriptPath", []string{req.LogonScript})
	}
	if req.Password != "" {
		// The unicodePwd value is the UTF-16LE encoding of the password
		// wrapped in double quotes.
		encoded, err := utf16le.NewEncoder().String(`"` + req.Password + `"`)
		if err != nil {
			return fmt.Errorf("encoding password: %w", err)
		}
		add.Attribute("unicodePwd", []string{encoded})
		add.Attribute("userAccountControl", []string{uacNormalAccount})
	}

	if err := c.Add(add); err != nil {
		return fmt.Errorf("creating %s: %w", dn, err)
	}

	d.logger.Debug("directory_account_created", slog.String("dn", dn))
	return nil
}

// AddGroupMember adds the user's entry to the member attribute of the group
// entry with the given common name.
func (d *LDAPDirectory) AddGroupMember(ctx context.Context, group, username string) error {
	return d.modifyMembership(ctx, group, username, true)
}

// RemoveGroupMember removes the user's entry from the member attribute of
// the group entry with the given common name.
func (d *LDAPDirectory) RemoveGroupMember(ctx context.Context, group, username string) error {
	return d.modifyMembership(ctx, group, username, false)
}

func (d *LDAPDirectory) modifyMembership(ctx context.Context, group, username string, add bool) error {
	c, err := d.getConnection(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	groupDN, err := d.searchSingleDN(c, fmt.Sprintf("(&(objectClass=group)(cn=%s))", ldap.EscapeFilter(group)))
	if err != nil {
		return fmt.Errorf("locating group %q: %w", group, err)
	}
	userDN, err := d.searchSingleDN(c, fmt.Sprintf("(&(objectClass=user)(cn=%s))", ldap.EscapeFilter(username)))
	if err != nil {
		return fmt.Errorf("locating user %q: %w", username, err)
	}

	req := ldap.NewModifyRequest(groupDN, nil)
	if add {
		req.Add("member", []string{userDN})
	} else {
		req.Delete("member", []string{userDN})
	}

	if err := c.Modify(req); err != nil {
		return fmt.Errorf("modifying membership of %s: %w", groupDN, err)
	}

	d.logger.Debug("directory_membership_modified",
		slog.String("group_dn", groupDN),
		slog.String("user_dn", userDN),
		slog.Bool("added", add))
	return nil
}

// LookupUserDN returns the distinguished name of the user entry whose common
// name equals username.
func (d *LDAPDirectory) LookupUserDN(ctx context.Context, username string) (string, error) {
	c, err := d.getConnection(ctx)
	if err != nil {
		return "", err
	}
	defer c.Close()

	dn, err := d.searchSingleDN(c, fmt.Sprintf("(&(objectClass=user)(cn=%s))", ldap.EscapeFilter(username)))
	if err != nil {
		return "", fmt.Errorf("%w: user %q", ErrDNNotFound, username)
	}
	return dn, nil
}

// LookupGroupDescription returns the description of the group entry whose
// common name equals group. A description that is not valid UTF-8 is
// rendered in the LDIF "description:: <base64>" form, matching what
// directory tooling emits for binary values; DecodeDirectoryValue undoes it.
func (d *LDAPDirectory) LookupGroupDescription(ctx context.Context, group string) (string, error) {
	c, err := d.getConnection(ctx)
	if err != nil {
		return "", err
	}
	defer c.Close()

	r, err := c.Search(&ldap.SearchRequest{
		BaseDN:       d.settings.BaseDN,
		Scope:        ldap.ScopeWholeSubtree,
		DerefAliases: ldap.NeverDerefAliases,
		Filter:       fmt.Sprintf("(&(objectClass=group)(cn=%s))", ldap.EscapeFilter(group)),
		Attributes:   []string{"description"},
	})
	if err != nil {
		return "", fmt.Errorf("searching for group %q: %w", group, err)
	}

	if len(r.Entries) == 0 {
		return "", fmt.Errorf("%w: group %q not found", ErrMissingDepartment, group)
	}

	raw := r.Entries[0].GetRawAttributeValue("description")
	if len(raw) == 0 {
		return "", fmt.Errorf("%w: group %q", ErrMissingDepartment, group)
	}
	if !utf8.Valid(raw) {
		return "description:: " + base64.StdEncoding.EncodeToString(raw), nil
	}

	return string(raw), nil
}

// ModifyAttributes applies the batch as replace operations on dn, as one
// modify request.
func (d *LDAPDirectory) ModifyAttributes(ctx context.Context, dn string, batch []Assignment) error {
	c, err := d.getConnection(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	req := ldap.NewModifyRequest(dn, nil)
	for _, a := range batch {
		req.Replace(a.Key, []string{a.Value})
	}

	if err := c.Modify(req); err != nil {
		return fmt.Errorf("modifying %s: %w", dn, err)
	}

	d.logger.Debug("directory_attributes_modified",
		slog.String("dn", dn),
		slog.Int("operations", len(batch)))
	return nil
}

func (d *LDAPDirectory) searchSingleDN(c *ldap.Conn, filter string) (string, error) {
	r, err := c.Search(&ldap.SearchRequest{
		BaseDN:       d.settings.BaseDN,
		Scope:        ldap.ScopeWholeSubtree,
		DerefAliases: ldap.NeverDerefAliases,
		Filter:       filter,
		Attributes:   []string{"cn"},
	})
	if err != nil {
		return "", err
	}

	if len(r.Entries) == 0 {
		return "", ErrDNNotFound
	}
	if len(r.Entries) > 1 {
		return "", fmt.Errorf("filter %s matched %d entries", filter, len(r.Entries))
	}

	return r.Entries[0].DN, nil
}
