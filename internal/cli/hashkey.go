package cli

import (
	"github.com/spf13/cobra"

	authService "github.com/cmlabs-hris/hrms-attendance-go/internal/service/auth"
)

// NewHashKeyCommand creates the hash-key command.
func NewHashKeyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-key <api-key>",
		Short: "Print the bcrypt hash for AUTH_API_KEY_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := authService.HashAPIKey(args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "hash api key", err)
			}
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(hash, map[string]string{"hash": hash})
		},
	}
}
