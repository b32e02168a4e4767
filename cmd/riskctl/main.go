package main

import (
	"os"

	"github.com/andresuchdata/stockrisk/internal/config"
	"github.com/andresuchdata/stockrisk/pkg/logger"
	"github.com/urfave/cli/v2"
)

func main() {
	cfg := config.Load()
	logger.Setup(os.Stderr, false)
	logger.SetLevel(cfg.Log.Level)

	app := newApp(cfg)
	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("riskctl failed")
	}
}

func newApp(cfg *config.Config) *cli.App {
	return &cli.App{
		Name:  "riskctl",
		Usage: "Stock risk and reorder recommendations from the command line",
		Commands: []*cli.Command{
			{
				Name:  "alerts",
				Usage: "List items at high or critical risk, most urgent first",
				Flags: append(append(sourceFlags(), filterFlags()...), formatFlag(),
					&cli.StringFlag{Name: "min-level", Usage: "Only alerts at or above this level (critical, high)"},
				),
				Before: openSource(cfg),
				After:  closeSource,
				Action: runAlerts,
			},
			{
				Name:   "summary",
				Usage:  "Print the KPI cards for the alert set",
				Flags:  append(append(sourceFlags(), filterFlags()...), formatFlag()),
				Before: openSource(cfg),
				After:  closeSource,
				Action: runSummary,
			},
			{
				Name:   "insight",
				Usage:  "Print the plain-language risk insight",
				Flags:  append(sourceFlags(), filterFlags()...),
				Before: openSource(cfg),
				After:  closeSource,
				Action: runInsight,
			},
			{
				Name:  "export",
				Usage: "Write reorder recommendations as CSV",
				Flags: append(append(sourceFlags(), filterFlags()...),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file, - for stdout",
						Value:   "-",
					},
					&cli.BoolFlag{
						Name:  "upload",
						Usage: "Also upload the file to the configured object storage",
					},
				),
				Before: openSource(cfg),
				After:  closeSource,
				Action: runExport(cfg),
			},
			{
				Name:   "publish",
				Usage:  "Replace the configured Google Sheet tab with the current alerts",
				Flags:  append(sourceFlags(), filterFlags()...),
				Before: openSource(cfg),
				After:  closeSource,
				Action: runPublish(cfg),
			},
			{
				Name:  "exports",
				Usage: "Browse exports uploaded to object storage",
				Subcommands: []*cli.Command{
					{
						Name:  "list",
						Usage: "List uploaded exports, newest first",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "date", Usage: "Only exports of this day (YYYY-MM-DD)"},
							formatFlag(),
						},
						Action: runExportsList(cfg),
					},
					{
						Name:  "get",
						Usage: "Download an uploaded export, the newest one unless --key is given",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "key", Usage: "Object key to download"},
							&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Destination file"},
						},
						Action: runExportsGet(cfg),
					},
				},
			},
			{
				Name:  "cache",
				Usage: "Query cache maintenance",
				Subcommands: []*cli.Command{
					{
						Name:   "flush",
						Usage:  "Drop every cached stock metrics query",
						Action: runCacheFlush(cfg),
					},
				},
			},
		},
	}
}
