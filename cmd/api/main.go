package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/doc-analyzer-api/internal/application/auth"
	"github.com/doc-analyzer-api/internal/application/document"
	"github.com/doc-analyzer-api/internal/application/otp"
	"github.com/doc-analyzer-api/internal/config"
	"github.com/doc-analyzer-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/doc-analyzer-api/internal/infrastructure/jwt"
	"github.com/doc-analyzer-api/internal/infrastructure/llm"
	"github.com/doc-analyzer-api/internal/infrastructure/pdf"
	s3infra "github.com/doc-analyzer-api/internal/infrastructure/s3"
	"github.com/doc-analyzer-api/internal/infrastructure/sns"
	"github.com/doc-analyzer-api/internal/infrastructure/twilio"
	transporthttp "github.com/doc-analyzer-api/internal/transport/http"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var version = "dev"

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	setupLogger(cfg)
	if envErr != nil {
		log.Info().Msg("no .env file found, reading from environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// OTP manager with its janitor.
	codes := otp.NewManager(otp.Deps{
		Provider:  smsProvider(cfg),
		AllowList: otp.NewAllowList(cfg.OTPAllowedNumbers),
		TTL:       cfg.OTPTTL,
	})
	go codes.Run(ctx, cfg.OTPSweepInterval)

	// JWT provider (optional; document routes stay public without it).
	deps := &transporthttp.Deps{Version: version}
	authDeps := auth.ServiceDeps{Codes: codes, ExposeDebugCode: cfg.OTPExposeDebugCode}
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		authDeps.Signer = p
		deps.Tokens = p
	} else {
		log.Warn().Err(err).Msg("JWT provider not available, identities carry no token")
	}
	deps.Auth = auth.NewService(authDeps)
	deps.Documents = document.NewService(documentDeps(ctx, cfg))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.LLMTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.AppPort).Str("env", cfg.AppEnv).Str("sms_provider", cfg.SMSProvider).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	codes.Close()
	log.Info().Msg("server stopped")
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if !cfg.Production() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// smsProvider returns the configured delivery provider, or nil to simulate
// every code.
func smsProvider(cfg *config.Config) otp.Provider {
	switch cfg.SMSProvider {
	case "twilio":
		p, err := twilio.NewProvider(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioVerifyServiceSID)
		if err != nil {
			log.Warn().Err(err).Msg("Twilio not configured, OTPs will be simulated")
			return nil
		}
		return p
	case "sns":
		sender, err := sns.NewSender(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("SNS sender not available, OTPs will be simulated")
			return nil
		}
		return sns.NewProvider(sender, cfg.OTPTTL)
	default:
		log.Info().Msg("no SMS provider configured, OTPs will be simulated")
		return nil
	}
}

func documentDeps(ctx context.Context, cfg *config.Config) document.ServiceDeps {
	d := document.ServiceDeps{
		Extractor: pdf.NewExtractor(),
		MaxBytes:  cfg.MaxUploadBytes,
		Retention: cfg.DocumentRetention,
	}

	if a, err := llm.NewFromConfig(ctx, cfg); err == nil {
		d.Assistant = a
	} else {
		log.Warn().Err(err).Msg("language model not available, uploads and chat will fail")
		d.Assistant = llm.Unavailable{Err: err}
	}

	if cfg.S3BucketName != "" {
		if client, err := s3infra.NewClient(ctx, cfg); err == nil {
			d.Archive = s3infra.NewStore(client, cfg.S3BucketName)
		} else {
			log.Warn().Err(err).Msg("S3 archive not available")
		}
	}

	if cfg.DocumentsTable != "" {
		if client, err := dynamo.NewClient(ctx, cfg); err == nil {
			// Bootstrap creates the table if it doesn't exist.
			dynamo.Bootstrap(ctx, client, cfg.DocumentsTable)
			d.Records = dynamo.NewAnalysisRepo(client, cfg.DocumentsTable)
		} else {
			log.Warn().Err(err).Msg("DynamoDB records not available")
		}
	}
	return d
}
