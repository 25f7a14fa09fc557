// Package main is fitctl, the operator CLI for fitquest: stat derivation and
// eligibility checks against the rules the server uses, plus role management.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// errNotEligible makes the process exit 1 without printing an error.
var errNotEligible = errors.New("not eligible")

func newRootCmd(users userStoreOpener) *cobra.Command {
	root := &cobra.Command{
		Use:           "fitctl",
		Short:         "fitquest operator tool",
		Long:          `fitctl derives player stats, checks quest eligibility, and manages user roles.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newDeriveCmd())
	root.AddCommand(newEligibleCmd())
	root.AddCommand(newSetRoleCmd(users))
	return root
}

func main() {
	err := newRootCmd(openUserStore).Execute()
	switch {
	case err == nil:
	case errors.Is(err, errNotEligible):
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
