package config

// PushConfig configures the countdown notification sent to the monitored
// device. A platform without credentials is skipped.
type PushConfig struct {
	FCM   *FCMConfig       `yaml:"fcm"`
	APNS  *APNSConfig      `yaml:"apns"`
	Alert *PushAlertConfig `yaml:"alert"`
}

type FCMConfig struct {
	ProjectID   string `yaml:"project_id"`
	Credentials string `yaml:"credentials_file"`
}

type APNSConfig struct {
	KeyID      string `yaml:"key_id"`
	TeamID     string `yaml:"team_id"`
	BundleID   string `yaml:"bundle_id"`
	KeyFile    string `yaml:"key_file"`
	Production bool   `yaml:"production"`
}

// PushAlertConfig names the sound, iOS category and Android channel the
// client app registers for emergency alerts.
type PushAlertConfig struct {
	Sound     string `yaml:"sound"`
	Category  string `yaml:"category"`
	ChannelID string `yaml:"channel_id"`
}

func loadPushConfig() *PushConfig {
	return &PushConfig{
		FCM: &FCMConfig{
			ProjectID:   getEnv("FCM_PROJECT_ID", ""),
			Credentials: getEnv("FCM_CREDENTIALS_FILE", ""),
		},
		APNS: &APNSConfig{
			KeyID:      getEnv("APNS_KEY_ID", ""),
			TeamID:     getEnv("APNS_TEAM_ID", ""),
			BundleID:   getEnv("APNS_BUNDLE_ID", ""),
			KeyFile:    getEnv("APNS_KEY_FILE", ""),
			Production: getEnvAsBool("APNS_PRODUCTION", false),
		},
		Alert: &PushAlertConfig{
			Sound:     getEnv("PUSH_ALERT_SOUND", "default"),
			Category:  getEnv("PUSH_ALERT_CATEGORY", "EMERGENCY_ALERT"),
			ChannelID: getEnv("PUSH_ALERT_CHANNEL_ID", "emergency_alerts"),
		},
	}
}
