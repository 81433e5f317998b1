package shell

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gosuri/uitable"

	"github.com/kiosk404/sqlite-mcp/internal/mcpsql/cmd/util"
)

type dotCommand struct {
	name string
	args string
	help string
	run  func(o *Options, ctx context.Context, args []string) error
}

var dotCommands []dotCommand

func init() {
	dotCommands = []dotCommand{
		{".help", "", "Show this message", (*Options).cmdHelp},
		{".quit", "", "Exit the shell", (*Options).cmdQuit},
		{".exit", "", "Exit the shell", (*Options).cmdQuit},
		{".tables", "", "List the MCP tables and their columns", (*Options).cmdTables},
		{".tools", "", "List the tools of the current server", (*Options).cmdTools},
		{".servers", "", "List the servers of the MCP configuration file", (*Options).cmdServers},
		{".use", "NAME", "Reopen the connection on another configured server", (*Options).cmdUse},
		{".reconnect", "", "Reconnect the current server", (*Options).cmdReconnect},
		{".status", "", "Show the status of this connection's session", (*Options).cmdStatus},
		{".output", "table|json", "Set the output format", (*Options).cmdOutput},
		{".history", "[N|/TEXT]", "Show the last N statements, or those containing TEXT", (*Options).cmdHistory},
		{".clear-history", "", "Delete the statement history", (*Options).cmdClearHistory},
	}
}

func (o *Options) runDotCommand(ctx context.Context, line string) {
	fields := strings.Fields(line)
	for _, c := range dotCommands {
		if c.name != fields[0] {
			continue
		}
		if err := c.run(o, ctx, fields[1:]); err != nil {
			util.PrintError(o.ErrOut, err)
		}
		return
	}
	util.PrintError(o.ErrOut, fmt.Errorf("unknown command %s, enter .help for a list", fields[0]))
}

func (o *Options) cmdHelp(context.Context, []string) error {
	table := uitable.New()
	for _, c := range dotCommands {
		table.AddRow(strings.TrimSpace(c.name+" "+c.args), c.help)
	}
	fmt.Fprintln(o.Out, table)
	return nil
}

func (o *Options) cmdQuit(context.Context, []string) error {
	o.quit = true
	return nil
}

func (o *Options) query(ctx context.Context, stmt string) error {
	o.refresh()
	rs, err := util.Execute(ctx, o.env.DB(), stmt)
	if err != nil {
		return err
	}
	return util.Print(o.Out, rs, o.Output, o.width)
}

func (o *Options) cmdTables(ctx context.Context, _ []string) error {
	return o.query(ctx, `SELECT m.name AS "table", group_concat(p.name || CASE p.hidden WHEN 1 THEN ' (hidden)' ELSE '' END, ', ') AS columns
FROM (SELECT 'mcp_list_tools' AS name UNION ALL SELECT 'mcp_list_tools_respond'
      UNION ALL SELECT 'mcp_call_tool' UNION ALL SELECT 'mcp_call_tool_respond') AS m,
     pragma_table_xinfo(m.name) AS p
GROUP BY m.name ORDER BY m.name`)
}

func (o *Options) cmdTools(ctx context.Context, _ []string) error {
	return o.query(ctx, "SELECT name, title, description FROM mcp_list_tools ORDER BY name")
}

func (o *Options) cmdServers(context.Context, []string) error {
	mgr := o.env.Module.Manager
	names := mgr.ServerNames()
	if len(names) == 0 {
		fmt.Fprintf(o.Out, "No servers in %s.\n", o.env.Config.MCPOptions.ConfigFile)
		return nil
	}

	table := uitable.New()
	table.AddRow("", "NAME", "STATUS", "SERVER", "TRANSPORT")
	for _, name := range names {
		mark := ""
		if name == o.env.Server() {
			mark = "*"
		}
		var info struct{ server, transport string }
		if s, ok := mgr.Session(name); ok {
			i := s.Info()
			info.server, info.transport = strings.TrimSpace(i.Name+" "+i.Version), i.Transport
		}
		table.AddRow(mark, name, mgr.ServerStatus(name).String(), info.server, info.transport)
	}
	fmt.Fprintln(o.Out, table)
	return nil
}

func (o *Options) cmdUse(_ context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: .use NAME")
	}
	if err := o.env.Use(args[0]); err != nil {
		return err
	}
	o.printConnection()
	return nil
}

func (o *Options) cmdReconnect(ctx context.Context, _ []string) error {
	name := o.env.Server()
	if name == "" {
		return fmt.Errorf("no server selected")
	}
	if err := o.env.Module.Manager.Reconnect(ctx, name); err != nil {
		return err
	}
	o.printConnection()
	return nil
}

func (o *Options) cmdStatus(ctx context.Context, _ []string) error {
	return o.query(ctx, "SELECT mcp_status() AS status")
}

func (o *Options) cmdOutput(_ context.Context, args []string) error {
	if len(args) != 1 || (args[0] != util.FormatTable && args[0] != util.FormatJSON) {
		return fmt.Errorf("usage: .output table|json")
	}
	o.Output = args[0]
	return nil
}

func (o *Options) cmdHistory(ctx context.Context, args []string) error {
	if o.history == nil {
		return fmt.Errorf("history is disabled")
	}

	n := 20
	var search string
	if len(args) > 0 {
		if strings.HasPrefix(args[0], "/") {
			search = strings.TrimPrefix(strings.Join(args, " "), "/")
		} else {
			v, err := strconv.Atoi(args[0])
			if err != nil || v < 0 {
				return fmt.Errorf("usage: .history [N|/TEXT]")
			}
			n = v
		}
	}

	entries, err := o.history.Recent(ctx, n)
	if search != "" {
		entries, err = o.history.Search(ctx, search, n)
	}
	if err != nil {
		return err
	}

	table := uitable.New()
	table.MaxColWidth = 80
	for _, e := range entries {
		result := fmt.Sprintf("%d rows", e.Rows)
		if e.Error != "" {
			result = "error"
		}
		table.AddRow(e.ID, e.At.Format("2006-01-02 15:04:05"), result, util.Abbrev(e.Query, 70))
	}
	fmt.Fprintln(o.Out, table)
	return nil
}

func (o *Options) cmdClearHistory(ctx context.Context, _ []string) error {
	if o.history == nil {
		return fmt.Errorf("history is disabled")
	}
	return o.history.Clear(ctx)
}
