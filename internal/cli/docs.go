package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kolah/apilens/internal/docs"
	"github.com/kolah/apilens/internal/service"
)

func DocsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs <session-id>",
		Short: "Write standalone Markdown or HTML documentation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			docFormat, _ := flags.GetString("doc-format")
			outputDir, _ := flags.GetString("output-dir")
			filename, _ := flags.GetString("filename")

			opts := docs.DefaultOptions()
			opts.Filename = filename
			opts.IncludeTOC, _ = flags.GetBool("toc")
			opts.GroupByTag, _ = flags.GetBool("group-by-tag")
			opts.IncludeComponents, _ = flags.GetBool("components")
			opts.IncludeExamples, _ = flags.GetBool("examples")
			opts.IncludeSecurity, _ = flags.GetBool("security")

			return run(cmd, func(ctx context.Context, a *app, format string) (string, error) {
				if docFormat == "" {
					docFormat = a.cfg.Docs.Format
				}
				f, err := docs.ParseFormat(docFormat)
				if err != nil {
					return "", &service.Error{Kind: service.KindInvalidArgument, Message: err.Error(), Err: err}
				}
				opts.Format = f
				return a.svc.GenerateDocumentation(ctx, args[0], service.DocsRequest{
					Options:   opts,
					OutputDir: outputDir,
				}, format)
			})
		},
	}

	defaults := docs.DefaultOptions()
	flags := cmd.Flags()
	flags.String("doc-format", "", "Documentation format: markdown, html (default: docs.format from config)")
	flags.StringP("output-dir", "o", "", "Output directory (default: docs.output-dir from config)")
	flags.String("filename", "", "Output file name (default: derived from the document title)")
	flags.Bool("toc", defaults.IncludeTOC, "Include a table of contents")
	flags.Bool("group-by-tag", defaults.GroupByTag, "Group endpoints by tag")
	flags.Bool("components", defaults.IncludeComponents, "Include a components section")
	flags.Bool("examples", defaults.IncludeExamples, "Include examples")
	flags.Bool("security", defaults.IncludeSecurity, "Include security requirements")
	return cmd
}
