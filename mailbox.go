package provision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// MailboxPayload is the handoff payload for the external mailbox
// provisioner. Field names are part of the wire contract.
type MailboxPayload struct {
	EmailAddress      string   `json:"emailAddress"`
	EmailPassword     string   `json:"emailPassword"`
	DistributionLists []string `json:"distributionLists"`
}

// BuildMailboxPayload assembles a payload from the request's mail address,
// mail password and comma-separated distribution-list string. Empty list
// entries are trimmed away; an empty list is valid.
func BuildMailboxPayload(address, password, distributionLists string) MailboxPayload {
	payload := MailboxPayload{
		EmailAddress:      address,
		EmailPassword:     password,
		DistributionLists: []string{},
	}

	for _, list := range strings.Split(distributionLists, ",") {
		list = strings.TrimSpace(list)
		if list == "" {
			continue
		}
		payload.DistributionLists = append(payload.DistributionLists, list)
	}

	return payload
}

// Encode serializes the payload as base64-encoded JSON, the sole argument
// the external provisioner accepts.
func (p MailboxPayload) Encode() (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encoding mailbox payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// ExecMailboxProvisioner invokes an external command with the encoded
// payload as its only argument.
type ExecMailboxProvisioner struct {
	// Command is the path of the mailbox provisioning executable.
	Command string
}

// Provision runs the external command and returns its combined output.
//
// The command's exit status is indistinguishable from a crash beyond
// "produced output or not": a failing run that still printed something
// returns that output alongside ErrMailboxProvisioningFailed.
func (e *ExecMailboxProvisioner) Provision(ctx context.Context, payload MailboxPayload) (string, error) {
	encoded, err := payload.Encode()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMailboxProvisioningFailed, err)
	}

	out, err := exec.CommandContext(ctx, e.Command, encoded).CombinedOutput()
	output := strings.TrimSpace(string(out))
	if err != nil {
		return output, fmt.Errorf("%w: %s: %v", ErrMailboxProvisioningFailed, e.Command, err)
	}

	return output, nil
}
