package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/graphboard/internal/adapters/submission"
)

func newValidateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the pending submission's structure and ownership",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sub, err := c.gatekeeper().Validate(cmd.Context())
			if err != nil {
				return err
			}
			c.out.Success("Submission valid: %s (%s)", sub.Team, sub.Metadata.SubmissionType)
			return nil
		},
	}
}

func newDecryptCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt the pending submission to <team>.csv",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g := c.gatekeeper()
			res, err := g.Decrypt(cmd.Context())
			if err != nil {
				return err
			}
			if err := g.ExportOutputs(
				submission.Output{Key: "team_name", Value: res.Team},
				submission.Output{Key: "csv_path", Value: res.CSVPath},
			); err != nil {
				return err
			}
			c.out.Success("Decrypted submission for %s: %s", res.Team, res.CSVPath)
			return nil
		},
	}
}

func newEncryptCmd(c *cli) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "encrypt FILE",
		Short: "Encrypt a predictions CSV for submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			src := args[0]
			dst := out
			if dst == "" {
				dst = src + ".enc"
			}
			if !strings.HasSuffix(dst, ".enc") {
				return fmt.Errorf("output %s must end in .enc", dst)
			}
			if err := c.gatekeeper().EncryptFile(src, dst); err != nil {
				return err
			}
			c.out.Success("Encrypted %s -> %s (team %s)", src, dst, submission.TeamName(filepath.Base(dst)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default FILE.enc)")
	return cmd
}

func newKeygenCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Print a new base64 submission key",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			key, err := submission.NewKey()
			if err != nil {
				return err
			}
			c.out.Info("%s", key)
			return nil
		},
	}
}
