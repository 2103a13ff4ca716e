package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/checkin-lab/backend/config"
	"github.com/checkin-lab/backend/internal/common"
	"github.com/checkin-lab/backend/internal/domain"
	"github.com/checkin-lab/backend/internal/domain/ratelimit"
	"github.com/checkin-lab/backend/internal/domain/verification"
	"github.com/checkin-lab/backend/internal/entity"
	"github.com/checkin-lab/backend/internal/repository"
	"github.com/checkin-lab/backend/pkg/logger"
	"github.com/checkin-lab/backend/pkg/router"
	"github.com/checkin-lab/backend/pkg/sms"
	"github.com/checkin-lab/backend/pkg/storage"
	"github.com/checkin-lab/backend/pkg/token"
	"github.com/checkin-lab/backend/pkg/wechat"
	"github.com/checkin-lab/backend/pkg/xcontext"
	"github.com/checkin-lab/backend/pkg/xredis"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type srv struct {
	app *cli.App
	ctx context.Context

	logger logger.Logger

	userRepo        repository.UserRepository
	communityRepo   repository.CommunityRepository
	ruleRepo        repository.RuleRepository
	recordRepo      repository.CheckinRecordRepository
	supervisionRepo repository.SupervisionRepository
	codeRepo        repository.VerificationCodeRepository

	tokenEngine token.Engine
	storage     storage.Storage
	redisClient xredis.Client

	authDomain        domain.AuthDomain
	userDomain        domain.UserDomain
	ruleDomain        domain.RuleDomain
	checkinDomain     domain.CheckinDomain
	communityDomain   domain.CommunityDomain
	supervisionDomain domain.SupervisionDomain

	router *router.Router
	server *http.Server
}

func (s *srv) loadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("Cannot load .env, use environment directly")
	}

	cfg := config.Configs{
		Env: getEnv("ENV", "local"),
		Database: config.DatabaseConfigs{
			Host:     getEnv("MYSQL_HOST", "localhost"),
			Port:     getEnv("MYSQL_PORT", "3306"),
			Database: getEnv("MYSQL_DATABASE", "checkin"),
			User:     getEnv("MYSQL_USER", "checkin"),
			Password: getEnv("MYSQL_PASSWORD", "checkin"),
		},
		ApiServer: config.ServerConfigs{
			Host: getEnv("API_HOST", "0.0.0.0"),
			Port: getEnv("API_PORT", "8080"),
		},
		Auth: config.AuthConfigs{
			TokenSecret: getEnv("TOKEN_SECRET", "token-secret"),
			AccessToken: config.TokenConfigs{
				Name:       "access_token",
				Expiration: getDuration("ACCESS_TOKEN_DURATION", time.Hour*24*7),
			},
			PhonePepper: getEnv("PHONE_PEPPER", "phone-pepper"),
			WeChat: config.WeChatConfigs{
				AppID:     getEnv("WECHAT_APP_ID", ""),
				AppSecret: getEnv("WECHAT_APP_SECRET", ""),
			},
		},
		Redis: config.RedisConfigs{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Storage: config.S3Configs{
			Region:         getEnv("STORAGE_REGION", "auto"),
			Endpoint:       getEnv("STORAGE_ENDPOINT", "http://localhost:9000"),
			PublicEndpoint: getEnv("STORAGE_PUBLIC_ENDPOINT", "http://localhost:9000"),
			AccessKey:      getEnv("STORAGE_ACCESS_KEY", "access"),
			SecretKey:      getEnv("STORAGE_SECRET_KEY", "secret"),
			Bucket:         getEnv("STORAGE_BUCKET", "checkin"),
			SSLDisabled:    getBool("STORAGE_SSL_DISABLED", true),
		},
		File: config.FileConfigs{
			MaxSize: int64(getInt("MAX_UPLOAD_SIZE", 2<<20)),
		},
		Checkin: config.CheckinConfigs{
			CancelWindow:  getDuration("CHECKIN_CANCEL_WINDOW", 30*time.Minute),
			SweepInterval: getDuration("MISSED_CHECK_INTERVAL", 5*time.Minute),
			Grace:         getDuration("MISSED_GRACE", 0),
		},
		Verification: config.VerificationConfigs{
			CodeTTL:    getDuration("VERIFICATION_CODE_TTL", 5*time.Minute),
			CodeLength: uint(getInt("VERIFICATION_CODE_LENGTH", 6)),
			UseMockSms: getBool("USE_MOCK_SMS", true),
		},
		Supervision: config.SupervisionConfigs{
			InviteTTL: getDuration("SUPERVISION_INVITE_TTL", 24*time.Hour),
		},
		SmsLimits: config.DefaultSmsLimits(),
	}

	s.ctx = xcontext.WithConfigs(context.Background(), cfg)
}

func (s *srv) loadLogger() {
	level := logger.INFO
	if xcontext.Configs(s.ctx).Env == "local" {
		level = logger.DEBUG
	}

	s.logger = logger.NewLogger(level)
	s.ctx = xcontext.WithLogger(s.ctx, s.logger)
}

func (s *srv) newDatabase() *gorm.DB {
	db, err := gorm.Open(mysql.Open(xcontext.Configs(s.ctx).Database.ConnectionString()),
		&gorm.Config{})
	if err != nil {
		panic(err)
	}

	return db
}

func (s *srv) migrateDB() {
	if err := entity.MigrateTable(s.ctx); err != nil {
		panic(err)
	}
}

func (s *srv) loadRedisClient() {
	client, err := xredis.NewClient(s.ctx)
	if err != nil {
		panic(err)
	}

	s.redisClient = client
}

func (s *srv) loadStorage() {
	s.storage = storage.NewS3Storage(xcontext.Configs(s.ctx).Storage)
}

func (s *srv) loadRepos() {
	s.userRepo = repository.NewUserRepository()
	s.communityRepo = repository.NewCommunityRepository()
	s.ruleRepo = repository.NewRuleRepository()
	s.recordRepo = repository.NewCheckinRecordRepository()
	s.supervisionRepo = repository.NewSupervisionRepository()
	s.codeRepo = repository.NewVerificationCodeRepository()
}

func (s *srv) loadDomains() {
	cfg := xcontext.Configs(s.ctx)

	s.tokenEngine = token.NewEngine(cfg.Auth.TokenSecret)

	limiter := ratelimit.NewLimiter(s.redisClient)

	var sender sms.Sender
	if cfg.Verification.UseMockSms {
		sender = sms.NewMockSender()
	} else {
		panic("no real sms sender is configured")
	}

	verificationService := verification.NewService(s.codeRepo, limiter, sender)

	var identityProvider wechat.IdentityProvider
	if cfg.Auth.WeChat.AppID != "" {
		identityProvider = wechat.New(cfg.Auth.WeChat.AppID, cfg.Auth.WeChat.AppSecret)
	} else {
		identityProvider = wechat.NewMockProvider()
	}

	globalRoleVerifier := common.NewGlobalRoleVerifier(s.userRepo)
	communityRoleVerifier := common.NewCommunityRoleVerifier(s.communityRepo, s.userRepo)

	s.authDomain = domain.NewAuthDomain(
		s.userRepo, s.communityRepo, s.ruleRepo,
		verificationService, s.tokenEngine, identityProvider)
	s.userDomain = domain.NewUserDomain(s.userRepo)
	s.ruleDomain = domain.NewRuleDomain(
		s.ruleRepo, s.communityRepo, communityRoleVerifier, s.storage)
	s.checkinDomain = domain.NewCheckinDomain(s.recordRepo, s.ruleRepo)
	s.communityDomain = domain.NewCommunityDomain(
		s.communityRepo, s.userRepo, s.ruleRepo,
		globalRoleVerifier, communityRoleVerifier, s.storage)
	s.supervisionDomain = domain.NewSupervisionDomain(
		s.supervisionRepo, s.recordRepo, s.ruleRepo)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func getInt(key string, fallback int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}

	return value
}

func getBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}

	return value
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}

	return value
}
