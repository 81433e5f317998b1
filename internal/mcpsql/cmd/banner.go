package cmd

import (
	"fmt"

	"github.com/kiosk404/sqlite-mcp/pkg/version"
)

const bannerText = `
                                 _ 
  _ __ ___   ___ _ __  ___  __ _| |
 | '_ ' _ \ / __| '_ \/ __|/ _' | |
 | | | | | | (__| |_) \__ \ (_| | |
 |_| |_| |_|\___| .__/|___/\__, |_|
                |_|           |_|  

      MCP tools as SQLite tables
`

// Banner returns the CLI banner string.
func Banner() string {
	return fmt.Sprintf("%s\n  Version: %s\n", bannerText, version.Get().GitVersion)
}
