package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/checkin-lab/backend/internal/domain/cron"
	"github.com/checkin-lab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startCron(*cli.Context) error {
	s.loadConfig()
	s.loadLogger()
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadRepos()

	scheduler := cron.NewScheduler()
	scheduler.Register(cron.NewMissedSweeperCronJob(
		s.ruleRepo, s.recordRepo, xcontext.Configs(s.ctx).Checkin.SweepInterval))

	go func() {
		termSignal := make(chan os.Signal, 1)
		signal.Notify(termSignal, syscall.SIGINT, syscall.SIGTERM)
		sig := <-termSignal
		xcontext.Logger(s.ctx).Infof("Got a signal of %s, stopping cron", sig.String())
		scheduler.Stop(s.ctx)
	}()

	// Blocks until Stop releases the scheduler.
	scheduler.Start(s.ctx)

	return nil
}
