package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hongkongkiwi/know-your-people/internal/application/auth"
	"github.com/hongkongkiwi/know-your-people/internal/application/ports"
	"github.com/hongkongkiwi/know-your-people/internal/application/retention"
	"github.com/hongkongkiwi/know-your-people/internal/application/verification"
	"github.com/hongkongkiwi/know-your-people/internal/config"
	"github.com/hongkongkiwi/know-your-people/internal/domain"
	"github.com/hongkongkiwi/know-your-people/internal/infrastructure/delivery"
	httprouter "github.com/hongkongkiwi/know-your-people/internal/infrastructure/http"
	"github.com/hongkongkiwi/know-your-people/internal/infrastructure/http/handlers"
	"github.com/hongkongkiwi/know-your-people/internal/infrastructure/http/middleware"
	"github.com/hongkongkiwi/know-your-people/internal/infrastructure/persistence/memory"
	"github.com/hongkongkiwi/know-your-people/internal/infrastructure/persistence/postgres"
	"github.com/hongkongkiwi/know-your-people/internal/infrastructure/queue"
	"github.com/hongkongkiwi/know-your-people/internal/infrastructure/security"
	"github.com/hongkongkiwi/know-your-people/internal/infrastructure/webhook"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx := context.Background()

	var (
		people ports.PersonStore
		pool   *pgxpool.Pool
	)
	if cfg.Database.URL != "" {
		pool, err = pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect to database")
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("ping database")
		}
		if err := postgres.RunMigrations(cfg.Database.URL); err != nil {
			log.Fatal().Err(err).Msg("run migrations")
		}
		people = postgres.NewPersonRepository(pool)
	} else {
		log.Warn().Msg("DATABASE_URL not set; using in-memory store")
		people = memory.NewStore()
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("parse REDIS_URL")
		}
		redisClient = redis.NewClient(opt)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis ping failed; continuing without redis")
			redisClient = nil
		}
	}

	healthHandler := handlers.NewHealthHandler(pool, redisClient)

	var emailSender ports.CodeSender = delivery.NewLogSender(log)
	var smsSender ports.CodeSender
	if cfg.SMS.APIURL != "" {
		smsSender, err = delivery.NewSMSSender(delivery.SMSSenderConfig{
			APIURL:    cfg.SMS.APIURL,
			AuthID:    cfg.SMS.AuthID,
			AuthToken: cfg.SMS.AuthToken,
			From:      cfg.SMS.From,
			Template:  cfg.SMS.Template,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("create sms sender")
		}
	} else {
		smsSender = delivery.NewLogSender(log)
	}

	var taskEnqueuer ports.TaskEnqueuer
	var asynqWorker *queue.Worker
	if redisClient != nil {
		redisOpt, _ := redis.ParseURL(cfg.Redis.URL)
		asynqOpt := asynq.RedisClientOpt{Addr: redisOpt.Addr, Password: redisOpt.Password, DB: redisOpt.DB}
		asynqEnq := queue.NewAsynqEnqueuer(asynqOpt, log)
		defer asynqEnq.Close()
		taskEnqueuer = asynqEnq
		asynqWorker = queue.NewWorker(asynqOpt, smsSender, emailSender, log)
		go func() {
			if err := asynqWorker.Run(); err != nil {
				log.Warn().Err(err).Msg("asynq worker stopped")
			}
		}()
	} else {
		taskEnqueuer = queue.NewNoopEnqueuer()
	}

	var emitter ports.WebhookEmitter = webhook.NewNoopEmitter()
	if cfg.Webhook.URL != "" {
		var opts []webhook.HTTPEmitterOption
		if cfg.Webhook.AuthToken != "" {
			opts = append(opts, webhook.WithHeader("Authorization", "Bearer "+cfg.Webhook.AuthToken))
		}
		emitter = webhook.NewHTTPEmitter(cfg.Webhook.URL, opts...)
	}

	hasher := security.NewArgon2Hasher(security.Argon2Params{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  16,
		KeyLength:   32,
	})
	codes := security.NewCodeGenerator()

	policy := domain.LockoutPolicy{
		MaxAttempts:     cfg.Lockout.MaxAttempts,
		LockDuration:    cfg.Lockout.LockDuration,
		RelockOnAttempt: cfg.Lockout.RelockOnAttempt,
	}

	registerUC := auth.NewRegister(people, hasher)
	authenticateUC := auth.NewAuthenticate(people, hasher, policy, cfg.Lockout.RequireVerified)
	unlockUC := auth.NewUnlock(people, policy)
	setAdminLockUC := auth.NewSetAdminLock(people)
	setup2FAUC := auth.NewSetupSecondFactor(people, cfg.TOTPIssuer)
	confirm2FAUC := auth.NewConfirmSecondFactor(people)
	issueCodeUC := verification.NewIssueCode(people, codes, taskEnqueuer, verification.CodeSettings{
		EmailLength: cfg.Verification.EmailCodeLength,
		SMSLength:   cfg.Verification.SMSCodeLength,
	})
	verifyCodeUC := verification.NewVerifyCode(people)
	checkCodeUC := verification.NewCheckCode(people)

	if cfg.Verification.CodeMaxAge > 0 {
		go func() {
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for range ticker.C {
				n, err := retention.RunExpireStaleCodes(ctx, people, cfg.Verification.CodeMaxAge)
				if err != nil {
					log.Warn().Err(err).Msg("expire stale codes")
					continue
				}
				if n > 0 {
					log.Info().Int("expired", n).Msg("expired stale verification codes")
				}
			}
		}()
	}

	authHandler := handlers.NewAuthHandler(registerUC, authenticateUC, unlockUC, setup2FAUC, confirm2FAUC, emitter, log)
	verificationHandler := handlers.NewVerificationHandler(issueCodeUC, verifyCodeUC, checkCodeUC, emitter, log)
	adminHandler := handlers.NewAdminHandler(setAdminLockUC, emitter, log)
	requireAdmin := middleware.RequireAdminSecret(cfg.Admin.Secret)

	ipLimit, err := middleware.NewIPRateLimiter(cfg.RateLimit.PerIP)
	if err != nil {
		log.Fatal().Err(err).Msg("create IP rate limiter")
	}
	authLimit, err := middleware.NewIPRateLimiter(cfg.RateLimit.PerIPAuth)
	if err != nil {
		log.Fatal().Err(err).Msg("create auth rate limiter")
	}
	secureMiddleware := middleware.NewSecure(middleware.SecureOptions(cfg.DevMode))

	router := httprouter.NewRouter(httprouter.RouterConfig{
		AuthHandler:         authHandler,
		VerificationHandler: verificationHandler,
		AdminHandler:        adminHandler,
		HealthHandler:       healthHandler,
		RequireAdmin:        requireAdmin,
		Secure:              secureMiddleware,
		IPRateLimit:         ipLimit,
		AuthRateLimit:       authLimit,
		Log:                 log,
		Metrics:             true,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if asynqWorker != nil {
		asynqWorker.Shutdown()
	}
	log.Info().Msg("server stopped")
}
