package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	appconfig "github.com/kaizendigital/leadflow/internal/config"
	"github.com/kaizendigital/leadflow/internal/followup"
	"github.com/kaizendigital/leadflow/internal/notify"
	"github.com/kaizendigital/leadflow/internal/observability/metrics"
	"github.com/kaizendigital/leadflow/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DatabaseURL == "" {
		logger.Error("dispatch worker requires DATABASE_URL")
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := followup.NewPostgresStore(pool)

	var texts notify.TextSender
	if cfg.TwilioAccountSID != "" {
		texts = notify.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger).
			WithWhatsAppFrom(cfg.TwilioWhatsAppNumber)
	}
	dispatcher := notify.NewDispatcher(emailSender(ctx, cfg, logger), texts, "", logger).
		WithReplyTo(cfg.ReplyToEmail)

	worker := followup.NewWorker(store, dispatcher, logger).
		WithBatchSize(cfg.DispatchBatchSize).
		WithMetrics(metrics.NewLeadMetrics(nil))

	go worker.Run(ctx, cfg.DispatchInterval)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("dispatch worker shutting down")
	cancel()
	time.Sleep(2 * time.Second)
}

// emailSender picks the configured email provider. A nil return means email
// sends fail and surface as failed messages in the admin view.
func emailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			return nil
		}
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.AgencyName,
		}, logger)
	case "sendgrid":
		if cfg.SendGridAPIKey != "" {
			return notify.NewSendGridSender(notify.SendGridConfig{
				APIKey:    cfg.SendGridAPIKey,
				FromEmail: cfg.SendGridFromEmail,
				FromName:  cfg.SendGridFromName,
			}, logger)
		}
		logger.Warn("SENDGRID_API_KEY not set, emails go to the stub sender")
	}
	return notify.NewStubEmailSender(logger)
}
