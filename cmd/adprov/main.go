// Command adprov provisions a directory user account: it creates the
// account, assigns group memberships, derives organizational placement from
// the group policy, commits extra attributes and optionally hands off to the
// external mailbox provisioner.
//
// Usage:
//
//	adprov --config adprov.yaml -u jdoe -p s3cret -f John -s Doe \
//	    -g Sales,VPN -m jdoe@example.com -M mailS3cret \
//	    mobile=0123456789 accountExpires=31/12/2024
//
// Positional arguments are free-form key=value attribute assignments applied
// verbatim, except accountExpires, whose DD/MM/YYYY value is converted to
// the directory's native timestamp format.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	provision "github.com/netresearch/ad-user-provision"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		verbose    bool
		dryRun     bool

		username          string
		password          string
		firstName         string
		surname           string
		title             string
		company           string
		ou                string
		groups            string
		mailAddress       string
		mailPassword      string
		distributionLists string
	)

	cmd := &cobra.Command{
		Use:           "adprov [key=value ...]",
		Short:         "Provision a directory user account",
		Long:          "Creates a directory user account, assigns groups, derives organizational placement from group policy, commits extra attributes and optionally provisions a mailbox.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			settings, err := provision.LoadSettings(configPath)
			if err != nil {
				return err
			}

			directory, err := provision.NewLDAPDirectory(settings.Directory, logger)
			if err != nil {
				return err
			}

			opts := []provision.Option{
				provision.WithLogger(logger),
				provision.WithAllUsersGroup(settings.AllUsersGroup),
				provision.WithNoServiceGroup(settings.NoServiceGroup),
				provision.WithLogonScript(settings.LogonScript),
			}
			if settings.MailboxCommand != "" {
				opts = append(opts, provision.WithMailboxProvisioner(
					&provision.ExecMailboxProvisioner{Command: settings.MailboxCommand}))
			}
			if dryRun {
				opts = append(opts, provision.WithDryRun())
			}

			req := &provision.UserRequest{
				Username:          username,
				Password:          password,
				FirstName:         firstName,
				Surname:           surname,
				Title:             title,
				Company:           company,
				OU:                ou,
				Groups:            splitGroups(groups),
				MailAddress:       mailAddress,
				MailPassword:      mailPassword,
				DistributionLists: distributionLists,
				Attributes:        args,
			}

			p := provision.New(directory, provision.NewPolicyResolver(settings.Groups), opts...)
			result, err := p.Run(context.Background(), req)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Summary())
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "adprov.yaml", "settings file (directory endpoint, group policy)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log operations without touching the directory")

	cmd.Flags().StringVarP(&username, "username", "u", "", "account name (required)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "initial password (required)")
	cmd.Flags().StringVarP(&firstName, "first-name", "f", "", "first name (required)")
	cmd.Flags().StringVarP(&surname, "surname", "s", "", "surname (required)")
	cmd.Flags().StringVarP(&title, "title", "t", "", "job title")
	cmd.Flags().StringVar(&company, "company", "", "company name")
	cmd.Flags().StringVarP(&ou, "ou", "o", "", "organizational unit override")
	cmd.Flags().StringVarP(&groups, "groups", "g", "", "comma-separated group list, first is primary")
	cmd.Flags().StringVarP(&mailAddress, "mail", "m", "", "mail address")
	cmd.Flags().StringVarP(&mailPassword, "mail-password", "M", "", "mailbox password")
	cmd.Flags().StringVarP(&distributionLists, "distribution-lists", "d", "", "comma-separated distribution-list addresses")

	return cmd
}

func splitGroups(groups string) []string {
	var out []string
	for _, g := range strings.Split(groups, ",") {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		out = append(out, g)
	}
	return out
}
