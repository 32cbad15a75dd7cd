package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kolah/apilens/internal/query"
)

func EndpointsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "endpoints <session-id>",
		Short: "List endpoints",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, _ := cmd.Flags().GetStringSlice("tag")
			methods, _ := cmd.Flags().GetStringSlice("method")
			return run(cmd, func(ctx context.Context, a *app, format string) (string, error) {
				return a.svc.ListEndpoints(ctx, args[0], query.Filter{Tags: tags, Methods: methods}, format)
			})
		},
	}
	cmd.Flags().StringSliceP("tag", "t", nil, "Keep endpoints with any of these tags")
	cmd.Flags().StringSliceP("method", "m", nil, "Keep endpoints with these HTTP methods")
	return cmd
}

func EndpointCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "endpoint <session-id> <method> <path>",
		Short: "Show one endpoint in detail",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := detailOptions(cmd)
			if err != nil {
				return err
			}
			return run(cmd, func(ctx context.Context, a *app, format string) (string, error) {
				return a.svc.EndpointDetails(ctx, args[0], args[2], args[1], opts, format)
			})
		},
	}

	flags := cmd.Flags()
	flags.Bool("parameters", true, "Include parameters")
	flags.Bool("request-body", true, "Include the request body")
	flags.Bool("responses", true, "Include responses")
	flags.Bool("security", false, "Include security requirements")
	flags.Bool("examples", false, "Include examples")
	flags.Bool("schemas", true, "Include schemas")
	flags.StringSlice("status", nil, "Only show these response status codes")
	return cmd
}

func detailOptions(cmd *cobra.Command) (query.Options, error) {
	flags := cmd.Flags()
	var opts query.Options
	var err error
	for _, f := range []struct {
		name string
		dst  *bool
	}{
		{"parameters", &opts.IncludeParameters},
		{"request-body", &opts.IncludeRequestBody},
		{"responses", &opts.IncludeResponses},
		{"security", &opts.IncludeSecurity},
		{"examples", &opts.IncludeExamples},
		{"schemas", &opts.IncludeSchemas},
	} {
		if *f.dst, err = flags.GetBool(f.name); err != nil {
			return opts, err
		}
	}
	opts.ResponseStatusCodes, err = flags.GetStringSlice("status")
	return opts, err
}

func TagsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tags <session-id>",
		Short: "List tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app, format string) (string, error) {
				return a.svc.Tags(ctx, args[0], format)
			})
		},
	}
}

func ComponentsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "components <session-id> [type]",
		Short: "List components, optionally of one type such as schemas",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ := ""
			if len(args) == 2 {
				typ = args[1]
			}
			return run(cmd, func(ctx context.Context, a *app, format string) (string, error) {
				return a.svc.Components(ctx, args[0], typ, format)
			})
		},
	}
}
