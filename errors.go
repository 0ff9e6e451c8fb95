package provision

import (
	"errors"
	"fmt"
)

// Sentinel errors for provisioning failures. These provide a stable API for
// error classification; callers match them with errors.Is.
var (
	// ErrMissingRequiredField is returned when username, password, first name
	// or surname is empty.
	ErrMissingRequiredField = errors.New("provision: missing required field")

	// ErrAccountCreationFailed is returned when the directory refuses to
	// create the account.
	ErrAccountCreationFailed = errors.New("provision: account creation failed")

	// ErrGroupAssignmentFailed is returned when a group membership add fails.
	ErrGroupAssignmentFailed = errors.New("provision: group assignment failed")

	// ErrDNNotFound is returned when the freshly created account cannot be
	// located by a follow-up lookup.
	ErrDNNotFound = errors.New("provision: distinguished name not found")

	// ErrMissingDepartment is returned when the primary group carries no
	// description attribute. Every organizational group must carry a
	// department label, so this aborts the whole run.
	ErrMissingDepartment = errors.New("provision: primary group has no department description")

	// ErrInvalidDate is returned when an accountExpires value cannot be
	// parsed as a DD/MM/YYYY calendar date.
	ErrInvalidDate = errors.New("provision: invalid expiration date")

	// ErrAttributeCommitFailed is returned when the directory rejects the
	// attribute modify batch.
	ErrAttributeCommitFailed = errors.New("provision: attribute commit failed")

	// ErrMalformedAssignment is returned for a non-empty attribute token
	// without a '=' separator.
	ErrMalformedAssignment = errors.New("provision: malformed attribute assignment")

	// ErrMailboxProvisioningFailed is returned by the mailbox collaborator.
	// The orchestrator reports it but does not abort the run.
	ErrMailboxProvisioningFailed = errors.New("provision: mailbox provisioning failed")
)

// ProvisionError wraps a step failure with the pipeline position and the
// subject it failed on. It carries the collaborator's own message through Err.
type ProvisionError struct {
	// Step is the pipeline step that failed (e.g. "CreatingAccount").
	Step string
	// Subject is the entity the step was working on, such as a group name.
	Subject string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface with a one-line diagnostic.
func (e *ProvisionError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("provision %s failed for %q: %v", e.Step, e.Subject, e.Err)
	}
	return fmt.Sprintf("provision %s failed: %v", e.Step, e.Err)
}

// Unwrap implements the Go 1.13+ error unwrapping interface.
func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is matching against another ProvisionError by step.
func (e *ProvisionError) Is(target error) bool {
	if pe, ok := target.(*ProvisionError); ok {
		return e.Step == pe.Step
	}
	return errors.Is(e.Err, target)
}

func stepError(step, subject string, err error) *ProvisionError {
	return &ProvisionError{Step: step, Subject: subject, Err: err}
}
