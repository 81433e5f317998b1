package shell

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kiosk404/sqlite-mcp/internal/mcpsql/cmd/templates"
	"github.com/kiosk404/sqlite-mcp/internal/mcpsql/cmd/util"
	"github.com/kiosk404/sqlite-mcp/internal/mcpsql/history"
	"github.com/kiosk404/sqlite-mcp/pkg/logger"
	"github.com/kiosk404/sqlite-mcp/pkg/version"
)

var shellExample = templates.Examples(`
		# Start a shell on the only server in mcp.json
		mcpsql shell

		# Start a shell on a named server, keeping the database on disk
		mcpsql shell --mcp.server=filesystem --shell.database=tools.db

		# Start without mcp.json and attach a server from SQL
		mcpsql shell --mcp.config-file=/dev/null
		mcpsql> SELECT mcp_connect('http://localhost:8931/mcp');`)

const (
	prompt     = "mcpsql> "
	contPrompt = "   ...> "
)

type Options struct {
	Output string

	factory util.Factory
	util.IOStreams

	env     *util.Environment
	history *history.Store
	quit    bool
	width   uint
}

func NewCmdShell(f util.Factory, ioStreams util.IOStreams) *cobra.Command {
	o := &Options{factory: f, IOStreams: ioStreams, Output: util.FormatTable}

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive SQL shell",
		Long: templates.LongDesc(`
			Start an interactive SQL shell on a connection with the MCP tables
			registered. Statements end with a semicolon. Lines starting with a
			dot are shell commands; type .help to list them.

			The MCP configuration file is watched: when it changes, the
			connection is reopened against the new configuration before the
			next statement.`),
		Example: shellExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&o.Output, "output", "o", o.Output, "Output format: table or json.")
	return cmd
}

func (o *Options) Run(ctx context.Context) error {
	env, err := o.factory.Environment(ctx, true)
	if err != nil {
		return err
	}
	defer env.Close()
	o.env = env

	if path := env.Config.ShellOptions.HistoryFile; path != "" {
		db, err := history.Open(path)
		if err != nil {
			logger.Warn("[Shell] history disabled: %v", err)
		} else {
			defer db.Close()
			o.history = history.NewStore(db, history.DefaultMaxEntries)
		}
	}

	interactive := o.IsInteractive()
	if !interactive {
		color.NoColor = true
	}
	o.width = o.TerminalWidth(0) / 2
	if interactive {
		fmt.Fprintf(o.Out, "mcpsql %s\n", version.Get().GitVersion)
		o.printConnection()
		fmt.Fprintln(o.Out, `Enter ".help" for usage hints.`)
	}
	return o.loop(ctx, interactive)
}

func (o *Options) loop(ctx context.Context, interactive bool) error {
	scanner := bufio.NewScanner(o.In)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var buf strings.Builder
	for !o.quit {
		if interactive {
			p := prompt
			if buf.Len() > 0 {
				p = contPrompt
			}
			fmt.Fprint(o.Out, color.CyanString(p))
		}
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()

		if buf.Len() == 0 && strings.HasPrefix(strings.TrimSpace(line), ".") {
			o.runDotCommand(ctx, strings.TrimSpace(line))
			continue
		}

		buf.WriteString(line)
		buf.WriteByte('\n')
		stmts, rest := util.ScanStatements(buf.String())
		for _, stmt := range stmts {
			o.execute(ctx, stmt)
		}
		buf.Reset()
		if strings.TrimSpace(rest) != "" {
			buf.WriteString(rest)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if rest := strings.TrimSpace(buf.String()); rest != "" && !o.quit {
		o.execute(ctx, rest)
	}
	if interactive {
		fmt.Fprintln(o.Out)
	}
	return nil
}

func (o *Options) execute(ctx context.Context, stmt string) {
	o.refresh()

	start := time.Now()
	rs, err := util.Execute(ctx, o.env.DB(), stmt)
	entry := &history.Entry{
		Query:    stmt,
		Server:   o.env.Server(),
		At:       start,
		Duration: time.Since(start),
	}
	if err != nil {
		entry.Error = err.Error()
		util.PrintError(o.ErrOut, err)
	} else {
		entry.Rows = len(rs.Rows)
		if err := util.Print(o.Out, rs, o.Output, o.width); err != nil {
			util.PrintError(o.ErrOut, err)
		}
	}
	o.record(ctx, entry)
}

// refresh reopens the connection after the MCP configuration changed.
func (o *Options) refresh() {
	reopened, err := o.env.Refresh()
	if err != nil {
		util.PrintError(o.ErrOut, fmt.Errorf("reopening after configuration change: %w", err))
		return
	}
	if reopened {
		fmt.Fprintln(o.ErrOut, color.YellowString("MCP configuration changed, connection reopened."))
		o.printConnection()
	}
}

func (o *Options) record(ctx context.Context, e *history.Entry) {
	if o.history == nil {
		return
	}
	if err := o.history.Append(ctx, e); err != nil {
		logger.Warn("[Shell] failed to record history: %v", err)
	}
}

func (o *Options) printConnection() {
	s := o.env.Session()
	if s == nil {
		fmt.Fprintln(o.Out, "No MCP server selected. Use .use NAME or SELECT mcp_connect('http://...').")
		return
	}
	if err := s.Ready(); err != nil {
		fmt.Fprintf(o.Out, "Server %s: %s\n", s.Name(), color.RedString(s.Status().String()))
		return
	}
	info := s.Info()
	fmt.Fprintf(o.Out, "Connected to %s (%s %s over %s).\n", s.Name(), info.Name, info.Version, info.Transport)
}
