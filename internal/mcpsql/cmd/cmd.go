package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiosk404/sqlite-mcp/internal/mcpsql/cmd/query"
	"github.com/kiosk404/sqlite-mcp/internal/mcpsql/cmd/shell"
	"github.com/kiosk404/sqlite-mcp/internal/mcpsql/cmd/templates"
	"github.com/kiosk404/sqlite-mcp/internal/mcpsql/cmd/tools"
	"github.com/kiosk404/sqlite-mcp/internal/mcpsql/cmd/util"
	"github.com/kiosk404/sqlite-mcp/internal/mcpsql/cmd/version"
	"github.com/kiosk404/sqlite-mcp/internal/sqlmcp/options"
	"github.com/kiosk404/sqlite-mcp/pkg/logger"
)

// NewDefaultMCPSQLCommand creates the `mcpsql` command with default arguments.
func NewDefaultMCPSQLCommand() *cobra.Command {
	return NewMCPSQLCommand(os.Stdin, os.Stdout, os.Stderr)
}

func NewMCPSQLCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	opts := options.NewOptions()
	v := viper.New()

	// Parent command to which all subcommands are added.
	cmds := &cobra.Command{
		Use:   "mcpsql",
		Short: "mcpsql queries MCP servers with SQL",
		Long: templates.LongDesc(fmt.Sprintf(`%s
		mcpsql exposes the tools of a Model Context Protocol server as SQLite
		virtual tables:

		  mcp_list_tools           tool catalog, streamed
		  mcp_list_tools_respond   tool catalog, fetched once per connection
		  mcp_call_tool            tool output, one row per content item
		  mcp_call_tool_respond    tool output, fetched in one request

		Servers are configured in an mcp.json file or attached at runtime with
		SELECT mcp_connect('http://host/mcp').`, Banner())),
		Run: runHelp,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return completeOptions(v, opts)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			logger.FlushLog()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmds.SetIn(in)
	cmds.SetOut(out)
	cmds.SetErr(errOut)

	flags := cmds.PersistentFlags()
	addGlobalFlags(flags)
	opts.AddFlags(flags)
	_ = v.BindPFlags(flags)

	ioStreams := util.IOStreams{In: in, Out: out, ErrOut: errOut}
	f := util.NewFactory(opts)

	cmds.AddCommand(
		shell.NewCmdShell(f, ioStreams),
		query.NewCmdQuery(f, ioStreams),
		tools.NewCmdTools(f, ioStreams),
		version.NewCmdVersion(ioStreams),
	)
	return cmds
}

func runHelp(cmd *cobra.Command, args []string) {
	_ = cmd.Help()
}
