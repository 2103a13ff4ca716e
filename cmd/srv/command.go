package main

import "github.com/urfave/cli/v2"

func (s *srv) loadApp() {
	app := cli.NewApp()
	app.Action = cli.ShowAppHelp
	app.Name = "checkin"
	app.Usage = ""
	app.Commands = []*cli.Command{
		{
			Action:      server.startApi,
			Name:        "api",
			Usage:       "Start the api server",
			Category:    "Api",
			Description: `Serves every HTTP endpoint of the application.`,
		},
		{
			Action:      server.startCron,
			Name:        "cron",
			Usage:       "Start the cron worker",
			Category:    "Worker",
			Description: `Runs the missed sweeper. Run exactly one instance per deployment.`,
		},
		{
			Action:      server.startMigrate,
			Name:        "migrate",
			Usage:       "Migrate database schema and seed system rows",
			Category:    "Tool",
			Description: `Applies the schema and creates the default and blackhouse communities.`,
		},
	}

	s.app = app
}
