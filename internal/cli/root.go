package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kolah/apilens/internal/config"
	"github.com/kolah/apilens/internal/service"
)

var Version = "1.0.0"

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "apilens",
		Short:   "apilens - explore OpenAPI documents through persistent sessions",
		Version: Version,

		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	config.BindFlags(root)
	root.AddCommand(
		ServeCommand(),
		SessionCommand(),
		EndpointsCommand(),
		EndpointCommand(),
		TagsCommand(),
		ComponentsCommand(),
		DocsCommand(),
	)

	return root
}

// ReportError prints a failed command. Operation errors are written to stdout
// as the same {"error": true, "message": ...} payload the MCP tools return;
// usage and configuration errors go to stderr as plain text.
func ReportError(stdout, stderr io.Writer, err error) {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		fmt.Fprintln(stdout, service.Payload(svcErr))
		return
	}
	fmt.Fprintln(stderr, "Error:", err.Error())
}
