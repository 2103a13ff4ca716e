package main

import (
	"fmt"
	"net/http"

	"github.com/checkin-lab/backend/internal/common"
	"github.com/checkin-lab/backend/internal/middleware"
	"github.com/checkin-lab/backend/pkg/router"
	"github.com/checkin-lab/backend/pkg/xcontext"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/urfave/cli/v2"
)

func (s *srv) startApi(*cli.Context) error {
	s.loadConfig()
	s.loadLogger()
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadRedisClient()
	s.loadStorage()
	s.loadRepos()
	s.loadDomains()
	s.loadRouter()

	cfg := xcontext.Configs(s.ctx)
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.ApiServer.Host, cfg.ApiServer.Port),
		Handler: cors.AllowAll().Handler(s.router.Handler()),
	}

	s.logger.Infof("Starting api server on port %s", cfg.ApiServer.Port)
	if err := s.server.ListenAndServe(); err != nil {
		panic(err)
	}

	return nil
}

func (s *srv) loadRouter() {
	s.registerPrometheus()

	s.router = router.New(xcontext.DB(s.ctx), xcontext.Configs(s.ctx), s.logger)
	s.router.Before(middleware.ParseAccessToken(s.tokenEngine))
	s.router.After(middleware.Logger())
	s.router.After(middleware.Prometheus())

	// Public API
	{
		router.POST(s.router, "/requestCode", s.authDomain.RequestCode)
		router.POST(s.router, "/phoneRegister", s.authDomain.PhoneRegister)
		router.POST(s.router, "/phoneLogin", s.authDomain.PhoneLogin)
		router.POST(s.router, "/passwordLogin", s.authDomain.PasswordLogin)
		router.POST(s.router, "/wechatLogin", s.authDomain.WeChatLogin)
		router.GET(s.router, "/getCommunities", s.communityDomain.GetList)
	}

	// Authenticated API
	authRouter := s.router.Branch()
	authRouter.Before(middleware.Authenticate())
	{
		router.POST(authRouter, "/bindPhone", s.authDomain.BindPhone)

		router.GET(authRouter, "/getMe", s.userDomain.GetMe)
		router.POST(authRouter, "/updateName", s.userDomain.UpdateName)

		router.POST(authRouter, "/createPersonalRule", s.ruleDomain.CreatePersonal)
		router.POST(authRouter, "/updatePersonalRule", s.ruleDomain.UpdatePersonal)
		router.POST(authRouter, "/deletePersonalRule", s.ruleDomain.DeletePersonal)
		router.GET(authRouter, "/getMyRules", s.ruleDomain.GetMyRules)
		router.POST(authRouter, "/createCommunityRule", s.ruleDomain.CreateCommunity)
		router.POST(authRouter, "/updateCommunityRuleStatus", s.ruleDomain.UpdateCommunityStatus)
		router.POST(authRouter, "/uploadRuleIcon", s.ruleDomain.UploadIcon)

		router.POST(authRouter, "/checkin", s.checkinDomain.Check)
		router.POST(authRouter, "/cancelCheckin", s.checkinDomain.Cancel)
		router.GET(authRouter, "/getMyRecords", s.checkinDomain.GetMyRecords)

		router.POST(authRouter, "/createCommunity", s.communityDomain.Create)
		router.POST(authRouter, "/disableCommunity", s.communityDomain.Disable)
		router.POST(authRouter, "/assignStaff", s.communityDomain.AssignStaff)
		router.POST(authRouter, "/joinCommunity", s.communityDomain.Join)
		router.POST(authRouter, "/changeCommunity", s.communityDomain.ChangeCommunity)
		router.POST(authRouter, "/uploadCommunityLogo", s.communityDomain.UploadLogo)

		router.POST(authRouter, "/createInvite", s.supervisionDomain.CreateInvite)
		router.POST(authRouter, "/claimInvite", s.supervisionDomain.ClaimInvite)
		router.POST(authRouter, "/rejectLink", s.supervisionDomain.RejectLink)
		router.GET(authRouter, "/getVisibleRecords", s.supervisionDomain.GetVisibleRecords)
		router.GET(authRouter, "/getMyLinks", s.supervisionDomain.GetMyLinks)
	}
}

func (s *srv) registerPrometheus() {
	for _, counter := range common.PromCounters {
		prometheus.MustRegister(counter)
	}

	for _, histogram := range common.PromHistograms {
		prometheus.MustRegister(histogram)
	}

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":9101", nil); err != nil {
			s.logger.Errorf("Cannot serve prometheus: %v", err)
		}
	}()
}
