package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/mitchellh/go-wordwrap"
	"github.com/spf13/cobra"

	"github.com/kiosk404/sqlite-mcp/internal/mcpsql/cmd/templates"
	"github.com/kiosk404/sqlite-mcp/internal/mcpsql/cmd/util"
)

var toolsExample = templates.Examples(`
		# List the tools of the only server in mcp.json
		mcpsql tools

		# List the tools of one server, with input schemas
		mcpsql tools --mcp.server=filesystem --schema

		# Machine readable listing
		mcpsql tools -o json`)

const catalogQuery = `SELECT name, title, description, inputSchema FROM mcp_list_tools_respond ORDER BY name`

type Options struct {
	Output string
	Schema bool

	factory util.Factory
	util.IOStreams
}

func NewCmdTools(f util.Factory, ioStreams util.IOStreams) *cobra.Command {
	o := &Options{factory: f, IOStreams: ioStreams, Output: util.FormatTable}

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools of the selected MCP server",
		Long: templates.LongDesc(`
			List the tool catalog of the selected MCP server through the cached
			mcp_list_tools_respond table.`),
		Example: toolsExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&o.Output, "output", "o", o.Output, "Output format: table or json.")
	cmd.Flags().BoolVar(&o.Schema, "schema", o.Schema, "Include each tool's input schema.")
	return cmd
}

func (o *Options) Run(ctx context.Context) error {
	env, err := o.factory.Environment(ctx, false)
	if err != nil {
		return err
	}
	defer env.Close()

	if env.Session() == nil {
		return fmt.Errorf("no MCP server configured in %s", env.Config.MCPOptions.ConfigFile)
	}
	if err := env.Session().Ready(); err != nil {
		return err
	}

	rs, err := util.Execute(ctx, env.DB(), catalogQuery)
	if err != nil {
		return err
	}
	if !o.Schema {
		rs.Columns = rs.Columns[:3]
		for i := range rs.Rows {
			rs.Rows[i] = rs.Rows[i][:3]
		}
	}
	if o.Output == util.FormatJSON {
		return util.PrintJSON(o.Out, rs)
	}
	if o.Output != util.FormatTable {
		return fmt.Errorf("unknown output format %q", o.Output)
	}
	o.printCatalog(rs, env.Server())
	return nil
}

// printCatalog prints one block per tool with its description wrapped to
// the terminal.
func (o *Options) printCatalog(rs *util.ResultSet, server string) {
	width := o.TerminalWidth(100)
	if width > 20 {
		width -= 16
	}

	table := uitable.New()
	table.Wrap = true
	table.MaxColWidth = width
	for i, row := range rs.Rows {
		if i > 0 {
			table.AddRow("", "")
		}
		table.AddRow("NAME:", text(row[0]))
		if t := text(row[1]); t != "" {
			table.AddRow("TITLE:", t)
		}
		table.AddRow("DESCRIPTION:", wordwrap.WrapString(strings.TrimSpace(text(row[2])), width))
		if len(row) > 3 {
			table.AddRow("SCHEMA:", text(row[3]))
		}
	}
	fmt.Fprintln(o.Out, table)
	fmt.Fprintf(o.Out, "\n%d tools from %s\n", len(rs.Rows), server)
}

func text(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
