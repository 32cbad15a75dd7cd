package cli

import (
	"github.com/spf13/cobra"

	"github.com/kolah/apilens/internal/docs"
	"github.com/kolah/apilens/internal/mcpserver"
)

func ServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the session tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			docsFormat, err := docs.ParseFormat(a.cfg.Docs.Format)
			if err != nil {
				return err
			}
			srv := mcpserver.New(a.svc, mcpserver.Options{
				Version:    Version,
				DocsFormat: docsFormat,
			}, a.log)
			return srv.Run(cmd.Context())
		},
	}
}
