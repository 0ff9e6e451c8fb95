package provision

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Pipeline step names, used in ProvisionError and log events.
const (
	StepValidating           = "Validating"
	StepCreatingAccount      = "CreatingAccount"
	StepAssigningGroups      = "AssigningGroups"
	StepResolvingAttributes  = "ResolvingAttributes"
	StepCommittingAttributes = "CommittingAttributes"
	StepProvisioningMailbox  = "ProvisioningMailbox"
)

// Provisioner sequences one account provisioning run: account creation,
// group memberships, organizational placement, attribute commit and the
// optional mailbox handoff. Runs are strictly sequential and fail fast;
// there is no retry and no rollback, re-running the whole pipeline is the
// recovery path.
type Provisioner struct {
	directory  DirectoryService
	policy     *PolicyResolver
	department *DepartmentResolver
	mailbox    MailboxProvisioner
	logger     *slog.Logger

	allUsersGroup  string
	noServiceGroup string
	logonScript    string
	dryRun         bool
}

// New creates a Provisioner over the given directory collaborator and group
// placement policy.
func New(directory DirectoryService, policy *PolicyResolver, opts ...Option) *Provisioner {
	p := &Provisioner{
		directory:      directory,
		policy:         policy,
		department:     NewDepartmentResolver(directory),
		logger:         slog.Default(),
		allUsersGroup:  DefaultAllUsersGroup,
		noServiceGroup: DefaultNoServiceGroup,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Result summarizes a completed run.
type Result struct {
	// RunID identifies the run in logs.
	RunID string
	// Username and DN identify the created account.
	Username string
	DN       string
	// OU is the organizational unit the account was placed under.
	OU string
	// PrimaryGroup is the effective primary group, after defaulting.
	PrimaryGroup string
	// PrimaryGroupDefaulted reports that no group was requested and the
	// all-users group was used.
	PrimaryGroupDefaulted bool
	// GroupsAssigned lists every group a membership add was issued for, in
	// order: requested groups first, then policy-implied ones.
	GroupsAssigned []string
	// Department is the department inherited from the primary group.
	Department string
	// AttributesCommitted is the number of replace operations committed,
	// the department included.
	AttributesCommitted int
	// MailboxProvisioned reports a successful mailbox handoff.
	MailboxProvisioned bool
	// MailboxOutput is the mailbox provisioner's own output, if any.
	MailboxOutput string
	// Warnings collects non-fatal problems, such as a failed mailbox
	// handoff or a failed best-effort group removal.
	Warnings []string
}

// Summary renders a human-readable account of what was created.
func (r *Result) Summary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "created account %q (%s)\n", r.Username, r.DN)
	fmt.Fprintf(&b, "  organizational unit: %s\n", r.OU)
	if r.PrimaryGroupDefaulted {
		fmt.Fprintf(&b, "  primary group: %s (defaulted, no membership issued)\n", r.PrimaryGroup)
	} else {
		fmt.Fprintf(&b, "  primary group: %s\n", r.PrimaryGroup)
	}
	if len(r.GroupsAssigned) > 0 {
		fmt.Fprintf(&b, "  groups assigned: %s\n", strings.Join(r.GroupsAssigned, ", "))
	}
	fmt.Fprintf(&b, "  department: %s\n", r.Department)
	fmt.Fprintf(&b, "  attributes committed: %d\n", r.AttributesCommitted)
	if r.MailboxProvisioned {
		fmt.Fprintf(&b, "  mailbox: provisioned for %s\n", r.Username)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "  warning: %s\n", w)
	}

	return strings.TrimRight(b.String(), "\n")
}

// Run executes one provisioning run for req.
//
// The pipeline is linear with fail-fast transitions: Validating,
// CreatingAccount, AssigningGroups, ResolvingAttributes,
// CommittingAttributes, then the optional ProvisioningMailbox. A failure in
// any step before the mailbox handoff aborts the run with a ProvisionError
// naming the step; a mailbox handoff failure is recorded as a warning and
// the run still completes.
//
// Cancellation through ctx is honored between steps only. Once account
// creation has succeeded the current step always finishes, so a cancelled
// run never leaves a step half-applied.
func (p *Provisioner) Run(ctx context.Context, req *UserRequest) (*Result, error) {
	result := &Result{
		RunID:    uuid.NewString(),
		Username: req.Username,
	}
	logger := p.logger.With(
		slog.String("run_id", result.RunID),
		slog.String("username", req.Username))

	if err := req.Validate(); err != nil {
		return nil, stepError(StepValidating, req.Username, err)
	}

	// Group placement policy is static configuration, resolved before any
	// directory mutation: the OU is needed at account creation.
	primaryGroup := req.PrimaryGroup()
	if primaryGroup == "" {
		primaryGroup = p.allUsersGroup
		result.PrimaryGroupDefaulted = true
		logger.Info("primary_group_defaulted",
			slog.String("group", primaryGroup))
	}
	result.PrimaryGroup = primaryGroup

	placement := p.policy.Resolve(primaryGroup)
	ou := placement.OU
	if req.OU != "" {
		ou = req.OU
	}
	result.OU = ou

	// The sentinel comparison is case-insensitive; the policy table lookup
	// above is case-sensitive.
	noService := strings.EqualFold(primaryGroup, p.noServiceGroup)

	if err := p.createAccount(ctx, req, ou, noService, logger); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, stepError(StepAssigningGroups, req.Username, err)
	}
	if err := p.assignGroups(ctx, req, placement, noService, result, logger); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, stepError(StepResolvingAttributes, req.Username, err)
	}
	dn, department, assignments, err := p.resolveAttributes(ctx, req, primaryGroup, ou, logger)
	if err != nil {
		return nil, err
	}
	result.DN = dn
	result.Department = department

	if err := ctx.Err(); err != nil {
		return nil, stepError(StepCommittingAttributes, req.Username, err)
	}
	batch := append([]Assignment{{Key: "department", Value: department}}, assignments...)
	if err := p.commitAttributes(ctx, req.Username, dn, batch, logger); err != nil {
		return nil, err
	}
	result.AttributesCommitted = len(batch)

	p.provisionMailbox(ctx, req, result, logger)

	logger.Info("provisioning_done",
		slog.String("dn", result.DN),
		slog.String("ou", result.OU),
		slog.String("department", result.Department),
		slog.Int("groups_assigned", len(result.GroupsAssigned)),
		slog.Bool("mailbox_provisioned", result.MailboxProvisioned))

	return result, nil
}

func (p *Provisioner) createAccount(ctx context.Context, req *UserRequest, ou string, noService bool, logger *slog.Logger) error {
	account := AccountRequest{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		Surname:   req.Surname,
		Mail:      req.MailAddress,
		Title:     req.Title,
		Company:   req.Company,
		OU:        ou,
	}
	// Sentinel-group accounts get no interactive logon, so no logon script.
	if !noService {
		account.LogonScript = p.logonScript
	}

	if p.dryRun {
		logger.Info("dry_run_account_create_skipped", slog.String("ou", ou))
		return nil
	}

	if err := p.directory.CreateAccount(ctx, account); err != nil {
		return stepError(StepCreatingAccount, req.Username,
			fmt.Errorf("%w: %s", ErrAccountCreationFailed, err))
	}

	logger.Info("account_created", slog.String("ou", ou))
	return nil
}

func (p *Provisioner) assignGroups(ctx context.Context, req *UserRequest, placement Placement, noService bool, result *Result, logger *slog.Logger) error {
	if result.PrimaryGroupDefaulted {
		// The account already belongs to the all-users group; no membership
		// call is issued and no implied memberships apply.
		return nil
	}

	seen := make(map[string]bool)
	for _, group := range append(append([]string{}, req.Groups...), placement.Implied...) {
		if group == "" || seen[group] {
			continue
		}
		seen[group] = true

		if p.dryRun {
			logger.Info("dry_run_group_add_skipped", slog.String("group", group))
			result.GroupsAssigned = append(result.GroupsAssigned, group)
			continue
		}

		if err := p.directory.AddGroupMember(ctx, group, req.Username); err != nil {
			return stepError(StepAssigningGroups, group,
				fmt.Errorf("%w: %s", ErrGroupAssignmentFailed, err))
		}
		result.GroupsAssigned = append(result.GroupsAssigned, group)
		logger.Info("group_assigned", slog.String("group", group))
	}

	if noService && !p.dryRun {
		// Best-effort follow-up; a missing all-users membership is not fatal.
		if err := p.directory.RemoveGroupMember(ctx, p.allUsersGroup, req.Username); err != nil {
			warning := fmt.Sprintf("removing %q from %q: %v", req.Username, p.allUsersGroup, err)
			result.Warnings = append(result.Warnings, warning)
			logger.Warn("group_removal_failed",
				slog.String("group", p.allUsersGroup),
				slog.String("error", err.Error()))
		}
	}

	return nil
}

func (p *Provisioner) resolveAttributes(ctx context.Context, req *UserRequest, primaryGroup, ou string, logger *slog.Logger) (dn, department string, assignments []Assignment, err error) {
	if p.dryRun {
		dn = fmt.Sprintf("CN=%s,%s", req.Username, ou)
	} else {
		dn, err = p.directory.LookupUserDN(ctx, req.Username)
		if err != nil {
			return "", "", nil, stepError(StepResolvingAttributes, req.Username, err)
		}
	}

	department, err = p.department.Resolve(ctx, primaryGroup)
	if err != nil {
		return "", "", nil, stepError(StepResolvingAttributes, primaryGroup, err)
	}

	assignments, err = ParseAssignments(req.Attributes)
	if err != nil {
		return "", "", nil, stepError(StepResolvingAttributes, req.Username, err)
	}

	logger.Info("attributes_resolved",
		slog.String("dn", dn),
		slog.String("department", department),
		slog.Int("extra_attributes", len(assignments)))
	return dn, department, assignments, nil
}

func (p *Provisioner) commitAttributes(ctx context.Context, username, dn string, batch []Assignment, logger *slog.Logger) error {
	path, cleanup, err := writeAttributeFile(username, renderModifyLDIF(dn, batch))
	if err != nil {
		return stepError(StepCommittingAttributes, username, err)
	}
	defer cleanup()

	if p.dryRun {
		logger.Info("dry_run_attribute_commit_skipped",
			slog.String("attribute_file", path),
			slog.Int("operations", len(batch)))
		return nil
	}

	if err := p.directory.ModifyAttributes(ctx, dn, batch); err != nil {
		return stepError(StepCommittingAttributes, username,
			fmt.Errorf("%w: %s", ErrAttributeCommitFailed, err))
	}

	logger.Info("attributes_committed",
		slog.String("dn", dn),
		slog.Int("operations", len(batch)))
	return nil
}

// provisionMailbox performs the best-effort trailing handoff. It runs only
// when both mail address and mail password are present; failure is recorded
// as a warning, never as a run failure.
func (p *Provisioner) provisionMailbox(ctx context.Context, req *UserRequest, result *Result, logger *slog.Logger) {
	if req.MailAddress == "" || req.MailPassword == "" {
		return
	}

	if p.dryRun {
		logger.Info("dry_run_mailbox_skipped", slog.String("mail", req.MailAddress))
		return
	}

	if p.mailbox == nil {
		result.Warnings = append(result.Warnings, "no mailbox provisioner configured")
		logger.Warn("mailbox_provisioner_missing", slog.String("mail", req.MailAddress))
		return
	}

	payload := BuildMailboxPayload(req.MailAddress, req.MailPassword, req.DistributionLists)
	output, err := p.mailbox.Provision(ctx, payload)
	result.MailboxOutput = output
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
		logger.Warn("mailbox_provisioning_failed",
			slog.String("mail", req.MailAddress),
			slog.String("error", err.Error()))
		return
	}

	result.MailboxProvisioned = true
	logger.Info("mailbox_provisioned",
		slog.String("mail", req.MailAddress),
		slog.Int("distribution_lists", len(payload.DistributionLists)))
}
