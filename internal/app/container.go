package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/you/lendauth/domain"
	"github.com/you/lendauth/internal/config"
	"github.com/you/lendauth/internal/diagnostics"
	httpx "github.com/you/lendauth/internal/http"
	"github.com/you/lendauth/internal/http/handlers"
	"github.com/you/lendauth/internal/http/middleware"
	"github.com/you/lendauth/internal/infrastructure/auth"
	"github.com/you/lendauth/internal/infrastructure/database"
	"github.com/you/lendauth/internal/infrastructure/notifications"
	"github.com/you/lendauth/internal/infrastructure/ratelimit"
	"github.com/you/lendauth/internal/infrastructure/repositories"
	"github.com/you/lendauth/internal/logging"
	"github.com/you/lendauth/internal/metrics"
	"github.com/you/lendauth/internal/services"
)

// Container holds all dependencies
type Container struct {
	Config *config.Config
	Log    logging.Logger

	// Infrastructure
	DB          *gorm.DB
	RedisClient *redis.Client
	Metrics     *metrics.Metrics
	Diagnostics *diagnostics.Dispatcher
	Casbin      *auth.CasbinService

	// Repositories
	UserRepo    domain.UserRepository
	OTPRepo     domain.OTPRepository
	SessionRepo domain.SessionRepository

	// Channels
	Phone   domain.PhoneVerifier
	Email   domain.EmailSender
	Limiter domain.AttemptLimiter

	// Services
	IdentitySvc *services.IdentityServiceImpl
	SessionSvc  *services.SessionServiceImpl
	OTPSvc      *services.OTPServiceImpl
	Auth        *services.AuthFacade
	PolicySvc   domain.PolicyService

	Router *gin.Engine
}

// Option overrides a dependency before the services are built
type Option func(*Container)

// WithPhoneVerifier replaces the phone channel built from config
func WithPhoneVerifier(v domain.PhoneVerifier) Option {
	return func(c *Container) { c.Phone = v }
}

// WithEmailSender replaces the email channel built from config
func WithEmailSender(s domain.EmailSender) Option {
	return func(c *Container) { c.Email = s }
}

// NewContainer connects to Postgres and Redis and builds every dependency
func NewContainer(ctx context.Context, cfg *config.Config, log logging.Logger, opts ...Option) (*Container, error) {
	db, err := database.Open(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	rdb := database.NewRedis(database.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx); err != nil {
		// the limiter fails open, so Redis is not required to serve traffic
		log.Warn(ctx, "redis unreachable, attempt limiting disabled until it recovers", "addr", cfg.RedisAddr, "error", err)
	}

	return NewContainerWith(cfg, log, db, rdb.Client, opts...)
}

// NewContainerWith builds every dependency over existing connections
func NewContainerWith(cfg *config.Config, log logging.Logger, db *gorm.DB, rdb *redis.Client, opts ...Option) (*Container, error) {
	c := &Container{
		Config:      cfg,
		Log:         log,
		DB:          db,
		RedisClient: rdb,
		Metrics:     metrics.New(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	c.initRepositories()
	c.initChannels()
	if err := c.initPolicies(); err != nil {
		c.Diagnostics.Close()
		return nil, err
	}
	c.initServices()
	c.initRouter()
	return c, nil
}

func (c *Container) initRepositories() {
	c.UserRepo = repositories.NewUserRepository(c.DB)
	c.OTPRepo = repositories.NewOTPRepository(c.DB)
	c.SessionRepo = repositories.NewSessionRepository(c.DB)
}

func (c *Container) initChannels() {
	cfg := c.Config
	if c.Phone == nil {
		c.Phone = notifications.NewPhoneVerifier(cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioServiceSID, c.Log)
	}
	if c.Email == nil {
		c.Email = notifications.NewEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, c.Log)
	}
	c.Limiter = ratelimit.NewFixedWindow(c.RedisClient, "lendauth:otp-verify", cfg.OTPMaxAttempts, cfg.OTPAttemptWindow)
	c.Diagnostics = diagnostics.NewDispatcher(cfg.DiagnosticsBufferSize,
		diagnostics.FanoutSink{diagnostics.NewLogSink(c.Log), c.Metrics})
}

func (c *Container) initPolicies() error {
	cas, err := auth.NewCasbinService(c.DB, c.Config.CasbinModelPath)
	if err != nil {
		return err
	}
	if err := cas.SeedDefaults(); err != nil {
		return fmt.Errorf("seed policies: %w", err)
	}
	c.Casbin = cas
	c.PolicySvc = services.NewPolicyService(cas.E)
	return nil
}

func (c *Container) initServices() {
	cfg := c.Config
	cookies := services.CookieOptions{Secure: cfg.IsProduction()}

	identityCodec := auth.NewIdentityTokens(cfg.IdentitySecret, auth.IdentityTokenTTL, auth.WithIssuer(cfg.TokenIssuer))
	sessionCodec := auth.NewSessionTokens(cfg.SessionSecret, auth.SessionTokenTTL, auth.WithIssuer(cfg.TokenIssuer))

	c.IdentitySvc = services.NewIdentityService(identityCodec, c.UserRepo, c.Diagnostics, cookies, c.Log)
	c.SessionSvc = services.NewSessionService(sessionCodec, c.SessionRepo, c.Diagnostics, c.Metrics, cookies, c.Log, nil)
	c.OTPSvc = services.NewOTPService(
		c.IdentitySvc,
		c.SessionSvc,
		c.UserRepo,
		c.OTPRepo,
		c.Phone,
		c.Email,
		c.Limiter,
		c.Diagnostics,
		c.Metrics,
		c.Log,
		services.OTPConfig{Length: cfg.OTPLength, TTL: cfg.OTPTTL},
	)
	c.Auth = services.NewAuthFacade(c.SessionSvc, c.UserRepo, c.Diagnostics, c.Metrics, c.Log)
}

func (c *Container) initRouter() {
	authH := handlers.NewAuthHandlers(c.IdentitySvc, c.OTPSvc, c.SessionSvc, c.Auth, c.Log)
	polH := handlers.NewPolicyHandlers(c.PolicySvc)
	casbinMW := middleware.NewCasbinMW(c.PolicySvc, c.Log)
	c.Router = httpx.BuildRouter(authH, polH, c.Auth, casbinMW, c.Metrics)
}

// Close drains the diagnostics dispatcher and closes all connections
func (c *Container) Close() error {
	c.Diagnostics.Close()

	if c.RedisClient != nil {
		c.RedisClient.Close()
	}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
