package cmd

import (
	"github.com/alecthomas/kong"
)

type CLI struct {
	Color   string `help:"Color output: auto, always, never." enum:"auto,always,never" default:"auto"`
	JSON    bool   `help:"JSON output to stdout; disables colors."`
	Verbose bool   `help:"Enable debug logging."`

	VersionFlag kong.VersionFlag `help:"Print version."`

	Version VersionCmd `cmd:"" help:"Print version."`
	Config  ConfigCmd  `cmd:"" help:"Manage configuration."`
	Crawl   CrawlCmd   `cmd:"" help:"Run one harvest pass."`
	Run     RunCmd     `cmd:"" help:"Run the harvest on a schedule."`
	Proxies ProxiesCmd `cmd:"" help:"Proxy pool utilities."`
}

func NewCLI() *CLI {
	return &CLI{}
}
