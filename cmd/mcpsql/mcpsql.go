package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/kiosk404/sqlite-mcp/internal/mcpsql/cmd"
	"github.com/kiosk404/sqlite-mcp/internal/mcpsql/cmd/util"
)

func main() {
	command := cmd.NewDefaultMCPSQLCommand()
	util.CheckErr(command.Execute())
}
