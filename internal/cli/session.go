package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kolah/apilens/internal/service"
)

func SessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage sessions",
	}

	cmd.AddCommand(
		newSessionInitCmd(),
		newSessionInfoCmd(),
		newSessionRemoveCmd(),
		newSessionListCmd(),
		newSessionFormatCmd(),
	)

	return cmd
}

func newSessionInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init <file-or-url>",
		Short: "Load an OpenAPI document and open a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourceType, _ := cmd.Flags().GetString("source-type")
			sessionFormat, _ := cmd.Flags().GetString("session-format")
			return run(cmd, func(ctx context.Context, a *app, _ string) (string, error) {
				return a.svc.InitializeSession(ctx, service.InitializeRequest{
					Source:     args[0],
					SourceType: sourceType,
					Format:     sessionFormat,
				})
			})
		},
	}
	cmd.Flags().String("source-type", "", "Source type: file, url (inferred when empty)")
	cmd.Flags().String("session-format", "", "Default output format stored with the session")
	return cmd
}

func newSessionInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <session-id>",
		Short: "Describe a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app, format string) (string, error) {
				return a.svc.SessionInfo(ctx, args[0], format)
			})
		},
	}
}

func newSessionRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <session-id>",
		Aliases: []string{"remove"},
		Short:   "Remove a session",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app, format string) (string, error) {
				return a.svc.RemoveSession(ctx, args[0], format)
			})
		},
	}
}

func newSessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List known sessions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app, format string) (string, error) {
				return a.svc.ListSessions(ctx, format)
			})
		},
	}
}

func newSessionFormatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "format <session-id> [raw|compact|structured|markdown]",
		Short: "Show or set a session's output format",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app, format string) (string, error) {
				if len(args) == 2 {
					return a.svc.SetOutputFormat(ctx, args[0], args[1])
				}
				return a.svc.OutputFormat(ctx, args[0], format)
			})
		},
	}
}
