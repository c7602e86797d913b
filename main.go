package main

import (
	"github.com/tapestry-tools/tapestry/cmd/branches"
	"github.com/tapestry-tools/tapestry/cmd/discover"
	"github.com/tapestry-tools/tapestry/cmd/export"
	imports "github.com/tapestry-tools/tapestry/cmd/import"
	"github.com/tapestry-tools/tapestry/cmd/list"
	"github.com/tapestry-tools/tapestry/cmd/recent"
	"github.com/tapestry-tools/tapestry/cmd/root"
	"github.com/tapestry-tools/tapestry/cmd/search"
	"github.com/tapestry-tools/tapestry/cmd/serve"
	"github.com/tapestry-tools/tapestry/cmd/stats"
	"github.com/tapestry-tools/tapestry/cmd/tui"
	"github.com/tapestry-tools/tapestry/cmd/view"
)

// Version information, set during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Set version information
	root.Version = version
	root.Commit = commit
	root.Date = date
	root.RootCmd.Version = version

	// Add subcommands
	root.RootCmd.AddCommand(imports.ImportCmd)
	root.RootCmd.AddCommand(discover.DiscoverCmd)
	root.RootCmd.AddCommand(list.ListCmd)
	root.RootCmd.AddCommand(recent.RecentCmd)
	root.RootCmd.AddCommand(search.SearchCmd)
	root.RootCmd.AddCommand(view.ViewCmd)
	root.RootCmd.AddCommand(branches.BranchesCmd)
	root.RootCmd.AddCommand(export.ExportCmd)
	root.RootCmd.AddCommand(stats.StatsCmd)
	root.RootCmd.AddCommand(serve.ServeCmd)
	root.RootCmd.AddCommand(tui.TuiCmd)

	// Execute
	root.Execute()
}
