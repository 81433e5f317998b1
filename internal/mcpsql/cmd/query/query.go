package query

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kiosk404/sqlite-mcp/internal/mcpsql/cmd/templates"
	"github.com/kiosk404/sqlite-mcp/internal/mcpsql/cmd/util"
)

var queryExample = templates.Examples(`
		# List the tools of the server in mcp.json
		mcpsql query "SELECT name, description FROM mcp_list_tools"

		# Call a tool and print each content item
		mcpsql query "SELECT text FROM mcp_call_tool('echo', '{\"text\":\"hi\"}')"

		# Read statements from stdin, print JSON
		echo "SELECT mcp_version();" | mcpsql query -o json -`)

type Options struct {
	Output string

	factory util.Factory
	util.IOStreams
}

func NewCmdQuery(f util.Factory, ioStreams util.IOStreams) *cobra.Command {
	o := &Options{factory: f, IOStreams: ioStreams, Output: util.FormatTable}

	cmd := &cobra.Command{
		Use:                   "query SQL | -",
		DisableFlagsInUseLine: true,
		Short:                 "Run SQL statements and print their results",
		Long: templates.LongDesc(`
			Run one or more SQL statements against a connection that has the MCP
			tables registered, and print every result set.

			Use "-" to read the statements from stdin.`),
		Example: queryExample,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.Run(cmd.Context(), args)
		},
	}
	cmd.Flags().StringVarP(&o.Output, "output", "o", o.Output, "Output format: table or json.")
	return cmd
}

func (o *Options) Run(ctx context.Context, args []string) error {
	script := strings.Join(args, " ")
	if script == "-" {
		data, err := io.ReadAll(o.In)
		if err != nil {
			return err
		}
		script = string(data)
	}

	env, err := o.factory.Environment(ctx, false)
	if err != nil {
		return err
	}
	defer env.Close()

	width := o.TerminalWidth(0)
	for _, stmt := range util.SplitStatements(script) {
		rs, err := util.Execute(ctx, env.DB(), stmt)
		if err != nil {
			return fmt.Errorf("%s: %w", util.Abbrev(stmt, 60), err)
		}
		if err := util.Print(o.Out, rs, o.Output, width/2); err != nil {
			return err
		}
	}
	return nil
}
