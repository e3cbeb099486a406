package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/adamscao/certregistry/internal/app"
	"github.com/adamscao/certregistry/internal/config"
	"github.com/adamscao/certregistry/internal/logger"
	"github.com/adamscao/certregistry/internal/models"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cli carries state shared by all subcommands
type cli struct {
	configPath string
	app        *app.App
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:           "certctl",
		Short:         "Certificate Registry administration tool",
		Long:          "Administrative tool for issuing, inspecting and revoking certificates stored in the registry database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.open(cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.close()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "/etc/certregistry/config.yaml", "Config file path")

	rootCmd.AddCommand(c.issueCmd())
	rootCmd.AddCommand(c.verifyCmd())
	rootCmd.AddCommand(c.revokeCmd())
	rootCmd.AddCommand(c.getCmd())
	rootCmd.AddCommand(c.listCmd())
	rootCmd.AddCommand(c.statsCmd())
	rootCmd.AddCommand(c.auditCmd())

	return rootCmd
}

func (c *cli) open(stderr io.Writer) error {
	// Load configuration
	cfg, err := config.LoadWithEnv(c.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Store.Driver != config.DriverSQLite {
		return fmt.Errorf("certctl requires store.driver %q, got %q", config.DriverSQLite, cfg.Store.Driver)
	}
	cfg.Metrics.Enabled = false

	log, err := logger.New(stderr, "error", "text")
	if err != nil {
		return err
	}

	c.app, err = app.New(cfg, log)
	if err != nil {
		return err
	}

	return nil
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	return c.app.Close()
}

func (c *cli) issueCmd() *cobra.Command {
	var name, course, date string

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a new certificate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cert, err := c.app.Service.Issue(cmd.Context(), name, course, date)
			if err != nil {
				return fmt.Errorf("failed to issue certificate: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\nCertificate issued successfully!\n")
			printCert(out, cert)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Holder name (required)")
	cmd.Flags().StringVar(&course, "course", "", "Course (required)")
	cmd.Flags().StringVarP(&date, "date", "d", time.Now().Format("2006-01-02"), "Completion date")

	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("course")

	return cmd
}

func (c *cli) verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <id>",
		Short: "Check whether a certificate is valid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			valid, err := c.app.Service.Verify(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to verify certificate: %w", err)
			}

			if valid {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: not valid\n", args[0])
			}
			return nil
		},
	}
}

func (c *cli) revokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke a certificate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cert, err := c.app.Service.Revoke(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to revoke %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\nCertificate revoked.\n")
			printCert(out, cert)
			return nil
		},
	}
}

func (c *cli) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a certificate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cert, ok, err := c.app.Service.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get certificate: %w", err)
			}
			if !ok {
				return fmt.Errorf("certificate %s not found", args[0])
			}

			printCert(cmd.OutOrStdout(), cert)
			return nil
		},
	}
}

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all certificates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			certs, err := c.app.Service.ListAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list certificates: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(certs) == 0 {
				fmt.Fprintln(out, "No certificates found")
				return nil
			}

			fmt.Fprintf(out, "\nTotal certificates: %d\n\n", len(certs))
			fmt.Fprintf(out, "%-32s %-20s %-20s %-12s %s\n", "ID", "Name", "Course", "Date", "Revoked")
			fmt.Fprintln(out, "--------------------------------------------------------------------------------------------")

			for _, cert := range certs {
				fmt.Fprintf(out, "%-32s %-20s %-20s %-12s %s\n",
					cert.ID,
					cert.Name,
					cert.Course,
					cert.Date,
					yesNo(cert.Revoked),
				)
			}

			return nil
		},
	}
}

func (c *cli) statsCmd() *cobra.Command {
	var since string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show certificate and audit counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			window, err := config.ParseDuration(since)
			if err != nil {
				return fmt.Errorf("invalid --since: %w", err)
			}
			from := time.Now().Add(-window)
			ctx := cmd.Context()

			certs, err := c.app.Service.ListAll(ctx)
			if err != nil {
				return fmt.Errorf("failed to list certificates: %w", err)
			}
			revoked, err := c.app.Certs.CountRevoked(ctx)
			if err != nil {
				return err
			}
			issues, err := c.app.Audit.CountByAction(ctx, models.ActionCertIssue, from)
			if err != nil {
				return err
			}
			revokes, err := c.app.Audit.CountByAction(ctx, models.ActionCertRevoke, from)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Certificates:        %d\n", len(certs))
			fmt.Fprintf(out, "Revoked:             %d\n", revoked)
			fmt.Fprintf(out, "Issued (last %s):    %d\n", since, issues)
			fmt.Fprintf(out, "Revocations (last %s): %d\n", since, revokes)
			return nil
		},
	}

	cmd.Flags().StringVar(&since, "since", "30d", "Audit window (e.g. 24h, 30d)")

	return cmd
}

func (c *cli) auditCmd() *cobra.Command {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit log",
	}

	var certID, action string
	var limit int

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List audit log entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logs, err := c.app.Audit.List(cmd.Context(), certID, action, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(logs) == 0 {
				fmt.Fprintln(out, "No audit entries found")
				return nil
			}

			fmt.Fprintf(out, "%-6s %-20s %-12s %-32s %-8s %s\n", "ID", "Timestamp", "Action", "Certificate", "Success", "Error")
			fmt.Fprintln(out, "--------------------------------------------------------------------------------------------")
			for _, entry := range logs {
				fmt.Fprintf(out, "%-6d %-20s %-12s %-32s %-8s %s\n",
					entry.ID,
					entry.Timestamp.Format("2006-01-02 15:04:05"),
					entry.Action,
					entry.CertificateID,
					yesNo(entry.Success),
					entry.ErrorMsg,
				)
			}

			return nil
		},
	}
	listCmd.Flags().StringVar(&certID, "cert", "", "Filter by certificate id")
	listCmd.Flags().StringVar(&action, "action", "", "Filter by action (cert_issue, cert_revoke)")
	listCmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of entries")

	var olderThan string

	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old audit log entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			age, err := config.ParseDuration(olderThan)
			if err != nil {
				return fmt.Errorf("invalid --older-than: %w", err)
			}

			deleted, err := c.app.Audit.DeleteOld(cmd.Context(), time.Now().Add(-age))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d audit entries\n", deleted)
			return nil
		},
	}
	pruneCmd.Flags().StringVar(&olderThan, "older-than", "90d", "Delete entries older than this (e.g. 90d)")

	auditCmd.AddCommand(listCmd)
	auditCmd.AddCommand(pruneCmd)

	return auditCmd
}

func printCert(out io.Writer, cert models.Certificate) {
	fmt.Fprintf(out, "ID:      %s\n", cert.ID)
	fmt.Fprintf(out, "Name:    %s\n", cert.Name)
	fmt.Fprintf(out, "Course:  %s\n", cert.Course)
	fmt.Fprintf(out, "Date:    %s\n", cert.Date)
	fmt.Fprintf(out, "Revoked: %s\n", yesNo(cert.Revoked))
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
