// Package main prints an argon2id hash for a reviewer entry in config.yml.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"sarcasm-review/internal/auth"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Hash a reviewer password read from stdin",
	Long: `Read a password from the first line of stdin and print the value for
auth.reviewers[].password_hash.

Examples:
  echo 's3cret' | hash-password`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return errors.New("no password on stdin")
		}
		password := strings.TrimRight(line, "\r\n")
		if password == "" {
			return errors.New("password is empty")
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}
