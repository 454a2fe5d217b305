package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	LogLevel string           `help:"Log level (debug, info, warn, error); overrides the config file"`

	Odds OddsCmd `cmd:"" help:"Print the true odds of a dealt position"`
	Play PlayCmd `cmd:"" help:"Run the live prediction market"`
}

func main() {
	// A .env file may carry ODDSMARKET_* overrides
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("oddsmarket"),
		kong.Description("Prediction market on blackjack, Ultimate Texas Hold'em and three-handed hold'em"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}

func newLogger(level log.Level) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           level,
	})
}

// level resolves the --log-level flag over fallback
func (c *CLI) level(fallback string) (log.Level, error) {
	s := fallback
	if c.LogLevel != "" {
		s = c.LogLevel
	}
	return log.ParseLevel(s)
}
