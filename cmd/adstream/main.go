package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"adstream/internal/cache"
	"adstream/internal/channel"
	"adstream/internal/config"
	cronrunner "adstream/internal/cron"
	"adstream/internal/db"
	"adstream/internal/handler"
	"adstream/internal/identity"
	"adstream/internal/logger"
	gormrepository "adstream/internal/repository/gorm"
	"adstream/internal/service"

	_ "adstream/docs"
)

const usage = `usage: adstream <command> [flags]

commands:
  serve    run the HTTP API and background jobs (default)
  migrate  apply database migrations and exit
  sweep    expire stale bids once and exit
  token    print a signed bearer token for development
`

// @title AdStream API
// @version 1.0
// @description Creator ad slot marketplace: listings, bids, deals and delivery verification.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	switch cmd {
	case "serve":
		err = runServe(cfg)
	case "migrate":
		err = runMigrate(cfg)
	case "sweep":
		err = runSweep(cfg)
	case "token":
		err = runToken(cfg, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, cmd+":", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfgPath := os.Getenv("ADSTREAM_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("ADSTREAM_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}
	return config.Load(cfgPath, envOnly)
}

// app holds everything the commands share once the database is up.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	db     *db.DB
	store  *gormrepository.Store

	settings *service.SystemSettingsService
	sweeper  *service.BidExpirySweeper
}

func bootstrap(cfg config.Config) (*app, error) {
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		log.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		_ = db.Close(dbConn)
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	store := gormrepository.New(dbConn.Gorm, gormrepository.WithSerializableSettlement(cfg.Settlement.Serializable))
	settings := &service.SystemSettingsService{Repo: store}
	if err := settings.EnsureDefaultSwitches(context.Background()); err != nil {
		log.Warn("init default system switches failed", zap.Error(err))
	}

	return &app{
		cfg:      cfg,
		logger:   log,
		db:       dbConn,
		store:    store,
		settings: settings,
		sweeper:  &service.BidExpirySweeper{Repo: store, Logger: log, Flags: settings},
	}, nil
}

func (a *app) close() {
	_ = db.Close(a.db)
	_ = a.logger.Sync()
}

func runMigrate(cfg config.Config) error {
	a, err := bootstrap(cfg)
	if err != nil {
		return err
	}
	defer a.close()
	a.logger.Info("migrations applied")
	return nil
}

func runSweep(cfg config.Config) error {
	a, err := bootstrap(cfg)
	if err != nil {
		return err
	}
	defer a.close()
	res, err := a.sweeper.RunOnce(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("expired_bids=%d closed_listings=%d\n", res.ExpiredBids, res.ClosedListings)
	return nil
}

func runToken(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	sub := fs.String("sub", "", "user id")
	role := fs.String("role", "", "creator|brand|admin")
	channelID := fs.String("channel", "", "creator channel id")
	ttl := fs.Duration("ttl", cfg.Auth.TokenTTL, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	r, ok := identity.ParseRole(*role)
	if !ok {
		return fmt.Errorf("unknown role %q", *role)
	}
	signer := identity.JWT{Secret: []byte(cfg.Auth.JWTSecret), TokenTTL: *ttl, Issuer: cfg.Auth.Issuer}
	tok, exp, err := signer.Sign(identity.Identity{UserID: strings.TrimSpace(*sub), Role: r, ChannelID: strings.TrimSpace(*channelID)})
	if err != nil {
		return err
	}
	fmt.Println(tok)
	fmt.Fprintln(os.Stderr, "expires", exp.Format(time.RFC3339))
	return nil
}

func runServe(cfg config.Config) error {
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return errors.New("auth.jwt_secret is required")
	}
	feeRate, err := service.ParseFeeRate(cfg.Settlement.PlatformFeeRate)
	if err != nil {
		return fmt.Errorf("settlement.platform_fee_rate: %w", err)
	}

	a, err := bootstrap(cfg)
	if err != nil {
		return err
	}
	defer a.close()
	log := a.logger
	store := a.store

	var cacheStore cache.Store = cache.NewMemoryStore()
	if cfg.Cache.RedisAddr != "" {
		rs := cache.NewRedisStore(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		defer rs.Close()
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rs.Ping(pingCtx); err != nil {
			log.Warn("redis unreachable, using in-process cache", zap.Error(err))
		} else {
			cacheStore = rs
		}
		cancel()
	}

	var channels channel.Provider
	if cfg.YouTube.APIKey != "" {
		channels = &channel.CachedProvider{
			Next: &channel.YouTubeClient{
				BaseURL: cfg.YouTube.BaseURL,
				APIKey:  cfg.YouTube.APIKey,
				HTTP:    &http.Client{Timeout: cfg.YouTube.Timeout},
			},
			Cache:  cacheStore,
			TTL:    cfg.Cache.ChannelTTL,
			Logger: log,
		}
	}

	listings := &service.ListingService{
		Repo:          store,
		Logger:        log,
		Channels:      channels,
		Flags:         a.settings,
		BiddingWindow: cfg.Settlement.BiddingWindow,
	}
	bids := &service.BidService{Repo: store, Logger: log, BiddingWindow: cfg.Settlement.BiddingWindow}
	settlement := &service.SettlementService{Repo: store, Logger: log, FeeRate: feeRate}
	delivery := &service.DeliveryService{Repo: store, Logger: log}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())
	engine.Use(identity.Middleware(identity.JWT{
		Secret:   []byte(cfg.Auth.JWTSecret),
		TokenTTL: cfg.Auth.TokenTTL,
		Issuer:   cfg.Auth.Issuer,
	}))
	engine.Use(handler.WriteAuditMiddleware(log))

	(&handler.HealthHandler{DB: store}).Register(engine)
	handler.RegisterDocs(engine)
	(&handler.ListingHandler{Listings: listings}).Register(engine)
	(&handler.BidHandler{Bids: bids, Settlement: settlement}).Register(engine)
	(&handler.DealHandler{Delivery: delivery}).Register(engine)
	(&handler.SystemSettingsHandler{Repo: store, Settings: a.settings}).Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Cron.Enabled {
		cronRunner := cronrunner.New(log, ctx)
		if _, err := cronRunner.Add("bid_expiry", cfg.Cron.BidExpiry, a.sweeper.Run); err != nil {
			log.Warn("cron register bid expiry failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown requested")
		timeout := cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
