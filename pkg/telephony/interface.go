package telephony

import (
	"context"
	"errors"
)

var ErrVoiceUnsupported = errors.New("voice calls are not supported by this provider")

// Provider delivers emergency SMS and voice calls.
type Provider interface {
	Name() string
	SendSMS(ctx context.Context, request *SMSRequest) (*SMSResponse, error)
	PlaceCall(ctx context.Context, request *CallRequest) (*CallResponse, error)
}

type SMSRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
}

type SMSResponse struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// CallRequest places an outbound call that reads Script aloud.
type CallRequest struct {
	To     string `json:"to"`
	From   string `json:"from"`
	Script string `json:"script"`
	Repeat int    `json:"repeat"`
}

type CallResponse struct {
	CallID string `json:"call_id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
