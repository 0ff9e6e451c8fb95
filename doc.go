// Package provision creates directory-service user accounts from a
// group-driven placement policy.
//
// A provisioning run creates the account, assigns the requested and
// policy-implied group memberships, derives the organizational unit and the
// department from the primary group, commits free-form extra attributes
// (including calendar-date expirations converted to the directory's native
// 100-nanosecond timestamp format) and optionally hands off to an external
// mailbox provisioner.
//
// # Basic Usage
//
//	settings, err := provision.LoadSettings("adprov.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	directory, err := provision.NewLDAPDirectory(settings.Directory, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	p := provision.New(directory, provision.NewPolicyResolver(settings.Groups),
//		provision.WithLogonScript(settings.LogonScript),
//		provision.WithMailboxProvisioner(&provision.ExecMailboxProvisioner{Command: settings.MailboxCommand}))
//
//	req, err := provision.NewRequestBuilder().
//		WithUsername("jdoe").
//		WithPassword("s3cret").
//		WithName("John", "Doe").
//		WithGroups("Sales").
//		WithAttributes("mobile=0123456789", "accountExpires=31/12/2024").
//		Build()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := p.Run(context.Background(), req)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(result.Summary())
//
// # Pipeline Semantics
//
// Runs are linear and fail fast: validation, account creation, group
// assignment, attribute resolution and the attribute commit each abort the
// run on first failure, surfacing the collaborator's own message. The
// trailing mailbox handoff is best-effort and never fails a run. There is no
// automatic retry and no rollback; re-running the whole pipeline is the
// recovery path.
//
// # Error Handling
//
// The package defines sentinel errors for every failure kind
// (ErrMissingRequiredField, ErrAccountCreationFailed,
// ErrGroupAssignmentFailed, ErrDNNotFound, ErrMissingDepartment,
// ErrInvalidDate, ErrAttributeCommitFailed, ErrMailboxProvisioningFailed).
// Fatal failures are wrapped in a ProvisionError carrying the pipeline step
// and subject, so callers can classify with errors.Is and errors.As.
package provision
