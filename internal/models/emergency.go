package models

import (
	"time"
)

type EmergencySettings struct {
	ID               string      `json:"id" bson:"_id" gorm:"primaryKey;size:36"`
	UserID           string      `json:"user_id" bson:"user_id" gorm:"uniqueIndex;size:64;not null"`
	CountdownSeconds int         `json:"countdown_seconds" bson:"countdown_seconds"`
	EnableSMS        bool        `json:"enable_sms" bson:"enable_sms"`
	EnableVoiceCall  bool        `json:"enable_voice_call" bson:"enable_voice_call"`
	Enable911        bool        `json:"enable_911" bson:"enable_911" gorm:"column:enable_911"`
	Sensitivity      Sensitivity `json:"sensitivity" bson:"sensitivity" gorm:"size:16"`
	CreatedAt        time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at" bson:"updated_at"`
}

func (EmergencySettings) TableName() string {
	return "emergency_settings"
}

// UpdateSettingsRequest is a partial update; nil fields keep their value.
type UpdateSettingsRequest struct {
	CountdownSeconds  *int    `json:"countdown_seconds"`
	EnableSMS         *bool   `json:"enable_sms"`
	EnableVoiceCall   *bool   `json:"enable_voice_call"`
	Enable911         *bool   `json:"enable_911"`
	Sensitivity       *string `json:"sensitivity" binding:"omitempty,sensitivity"`
	SensitivitySlider *int    `json:"sensitivity_slider" binding:"omitempty,min=0,max=100"`
}

type SettingsResponse struct {
	EmergencySettings
	SensitivitySlider int  `json:"sensitivity_slider"`
	Threshold         int  `json:"threshold"`
	Stored            bool `json:"stored"`
}

type EmergencyLogEntry struct {
	ID            string        `json:"id" bson:"_id" gorm:"primaryKey;size:36"`
	UserID        string        `json:"user_id" bson:"user_id" gorm:"index:idx_logs_user_created;size:64;not null"`
	SessionID     string        `json:"session_id" bson:"session_id" gorm:"size:36"`
	DetectionType DetectionType `json:"detection_type" bson:"detection_type" gorm:"size:16"`
	Confidence    int           `json:"confidence" bson:"confidence"`
	Description   string        `json:"description,omitempty" bson:"description,omitempty" gorm:"size:512"`
	GPSLatitude   *float64      `json:"gps_latitude,omitempty" bson:"gps_latitude,omitempty"`
	GPSLongitude  *float64      `json:"gps_longitude,omitempty" bson:"gps_longitude,omitempty"`
	PhotoURL      *string       `json:"photo_url,omitempty" bson:"photo_url,omitempty" gorm:"size:1024"`
	WasCancelled  bool          `json:"was_cancelled" bson:"was_cancelled"`
	NotifiedCount int           `json:"notified_count" bson:"notified_count"`
	FailedCount   int           `json:"failed_count" bson:"failed_count"`
	CreatedAt     time.Time     `json:"created_at" bson:"created_at" gorm:"index:idx_logs_user_created"`
}

func (EmergencyLogEntry) TableName() string {
	return "emergency_logs"
}

type StartMonitoringRequest struct {
	DeviceToken    string    `json:"device_token"`
	DevicePlatform string    `json:"device_platform" binding:"omitempty,oneof=android ios"`
	Location       *GeoPoint `json:"location"`
}

type FrameRequest struct {
	Image string `json:"image" binding:"required"`
}
