package telephony

import (
	"context"
	"fmt"

	"happyshaa/internal/config"
)

func NewProvider(ctx context.Context, cfg *config.SMSConfig) (Provider, error) {
	switch cfg.Provider {
	case "twilio":
		if cfg.Twilio.AccountSID == "" || cfg.Twilio.AuthToken == "" {
			return nil, fmt.Errorf("twilio credentials are not configured")
		}
		return NewTwilioProvider(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber, cfg.Twilio.Voice), nil
	case "sns", "aws":
		return NewAWSSNSProvider(ctx, cfg.AWS.Region, cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey, cfg.AWS.SenderID)
	default:
		return nil, fmt.Errorf("unsupported sms provider: %s", cfg.Provider)
	}
}
