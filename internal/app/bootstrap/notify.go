package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/wolfman30/pawcare-booking/internal/config"
	"github.com/wolfman30/pawcare-booking/internal/notify"
	"github.com/wolfman30/pawcare-booking/pkg/logging"
)

// LoadAWSConfig builds the SDK config, preferring static keys when both are set.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}
	return awsconfig.LoadDefaultConfig(ctx, loaders...)
}

// BuildEmailSender picks the provider named by NOTIFY_EMAIL_PROVIDER. A
// provider missing its credentials falls back to the log sender.
func BuildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (notify.EmailSender, error) {
	from := notify.From{Email: cfg.NotifyFromEmail, Name: cfg.NotifyFromName}
	switch cfg.NotifyEmailProvider {
	case "":
		return notify.NewLogSender(logger), nil
	case "sendgrid":
		sender := notify.NewSendGridSender(cfg.SendGridAPIKey, from, logger)
		if sender == nil {
			logger.Warn("SENDGRID_API_KEY not set, email notifications disabled")
			return notify.NewLogSender(logger), nil
		}
		return sender, nil
	case "ses":
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), from, logger), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.NotifyEmailProvider)
	}
}
