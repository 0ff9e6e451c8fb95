package provision

import "fmt"

// UserRequest describes one account to provision. All fields are
// request-scoped: the struct is constructed from input, consumed within a
// single run and never persisted by this package.
type UserRequest struct {
	// Username is the unique account name, immutable once submitted.
	Username string
	// Password is a write-once secret, never logged.
	Password string
	// FirstName and Surname are mandatory.
	FirstName string
	Surname   string
	// Title and Company are optional descriptive attributes.
	Title   string
	Company string
	// OU overrides the policy-resolved organizational unit when non-empty.
	OU string
	// Groups is the ordered list of requested group names; the first entry
	// is the primary group. An empty list defaults the primary group to the
	// directory's built-in all-users group.
	Groups []string
	// MailAddress and MailPassword trigger the mailbox handoff when both
	// are present.
	MailAddress  string
	MailPassword string
	// DistributionLists is a comma-separated list of distribution-list
	// addresses for the mailbox handoff.
	DistributionLists string
	// Attributes holds free-form key=value tokens applied after the policy
	// attributes, in input order.
	Attributes []string
}

// PrimaryGroup returns the first requested group, or empty when none was
// requested.
func (r *UserRequest) PrimaryGroup() string {
	if len(r.Groups) == 0 {
		return ""
	}
	return r.Groups[0]
}

// Validate checks the mandatory fields. Username, password, first name and
// surname must be non-empty before any directory mutation is attempted.
func (r *UserRequest) Validate() error {
	for _, field := range []struct {
		name  string
		value string
	}{
		{"username", r.Username},
		{"password", r.Password},
		{"first name", r.FirstName},
		{"surname", r.Surname},
	} {
		if field.value == "" {
			return fmt.Errorf("%w: %s", ErrMissingRequiredField, field.name)
		}
	}
	return nil
}

// RequestBuilder implements a fluent, chainable API for constructing
// UserRequest values.
//
// Example:
//
//	req, err := NewRequestBuilder().
//	    WithUsername("jdoe").
//	    WithPassword("s3cret").
//	    WithName("John", "Doe").
//	    WithGroups("Sales", "VPN").
//	    Build()
type RequestBuilder struct {
	request UserRequest
}

// NewRequestBuilder creates an empty builder.
func NewRequestBuilder() *RequestBuilder {
	return &RequestBuilder{}
}

// WithUsername sets the account name.
func (b *RequestBuilder) WithUsername(username string) *RequestBuilder {
	b.request.Username = username
	return b
}

// WithPassword sets the account password.
func (b *RequestBuilder) WithPassword(password string) *RequestBuilder {
	b.request.Password = password
	return b
}

// WithName sets first name and surname.
func (b *RequestBuilder) WithName(firstName, surname string) *RequestBuilder {
	b.request.FirstName = firstName
	b.request.Surname = surname
	return b
}

// WithTitle sets the job title.
func (b *RequestBuilder) WithTitle(title string) *RequestBuilder {
	b.request.Title = title
	return b
}

// WithCompany sets the company name.
func (b *RequestBuilder) WithCompany(company string) *RequestBuilder {
	b.request.Company = company
	return b
}

// WithOU overrides the policy-resolved organizational unit.
func (b *RequestBuilder) WithOU(ou string) *RequestBuilder {
	b.request.OU = ou
	return b
}

// WithGroups sets the requested groups; the first is the primary group.
func (b *RequestBuilder) WithGroups(groups ...string) *RequestBuilder {
	b.request.Groups = groups
	return b
}

// WithMailbox sets the mailbox handoff credentials and distribution lists.
func (b *RequestBuilder) WithMailbox(address, password, distributionLists string) *RequestBuilder {
	b.request.MailAddress = address
	b.request.MailPassword = password
	b.request.DistributionLists = distributionLists
	return b
}

// WithAttributes appends free-form key=value attribute tokens.
func (b *RequestBuilder) WithAttributes(tokens ...string) *RequestBuilder {
	b.request.Attributes = append(b.request.Attributes, tokens...)
	return b
}

// Build validates the assembled request and returns it.
func (b *RequestBuilder) Build() (*UserRequest, error) {
	req := b.request
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}
