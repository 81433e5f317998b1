package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kiosk404/sqlite-mcp/internal/mcpsql/cmd/util"
	"github.com/kiosk404/sqlite-mcp/pkg/utils/json"
	"github.com/kiosk404/sqlite-mcp/pkg/version"
)

type Options struct {
	Short  bool
	Output string

	util.IOStreams
}

func NewCmdVersion(ioStreams util.IOStreams) *cobra.Command {
	o := &Options{IOStreams: ioStreams}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the mcpsql version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.Run()
		},
	}
	cmd.Flags().BoolVar(&o.Short, "short", o.Short, "Print just the version number.")
	cmd.Flags().StringVarP(&o.Output, "output", "o", o.Output, "One of '' or 'json'.")
	return cmd
}

func (o *Options) Run() error {
	info := version.Get()
	switch {
	case o.Short:
		fmt.Fprintln(o.Out, info.GitVersion)
	case o.Output == util.FormatJSON:
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(o.Out, string(data))
	case o.Output == "":
		fmt.Fprintf(o.Out, "mcpsql %s\n", info)
	default:
		return fmt.Errorf("unknown output format %q", o.Output)
	}
	return nil
}
