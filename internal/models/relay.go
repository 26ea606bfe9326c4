package models

// NotifyRequest is the body of the notification relay.
type NotifyRequest struct {
	PhoneNumber   string    `json:"phoneNumber" binding:"required,phone_number"`
	ContactName   string    `json:"contactName" binding:"required"`
	GPSLocation   *GeoPoint `json:"gpsLocation,omitempty"`
	PhotoURL      string    `json:"photoUrl,omitempty"`
	SendSMS       bool      `json:"sendSMS"`
	SendCall      bool      `json:"sendCall"`
	Emergency911  bool      `json:"emergency911"`
	DetectionType string    `json:"detectionType,omitempty"`
	Description   string    `json:"description,omitempty"`
}

type ChannelResult struct {
	Success bool   `json:"success"`
	SID     string `json:"sid,omitempty"`
	Error   string `json:"error,omitempty"`
}

type NotifyResults struct {
	SMS  *ChannelResult `json:"sms,omitempty"`
	Call *ChannelResult `json:"call,omitempty"`
}

type NotifyResponse struct {
	Success bool          `json:"success"`
	Results NotifyResults `json:"results"`
	Error   string        `json:"error,omitempty"`
}

// ContactOutcome is the result of notifying one emergency contact.
type ContactOutcome struct {
	ContactID   string        `json:"contact_id"`
	ContactName string        `json:"contact_name"`
	PhoneNumber string        `json:"phone_number"`
	Results     NotifyResults `json:"results"`
	Success     bool          `json:"success"`
	Error       string        `json:"error,omitempty"`
}

type ClassifyRequest struct {
	Image string `json:"image" binding:"required"`
}
