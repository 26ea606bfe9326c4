package push

import (
	"context"
	"fmt"
	"time"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

type APNSProvider struct {
	client *apns2.Client
	topic  string
}

func NewAPNSProvider(keyFile, keyID, teamID, topic string, production bool) (*APNSProvider, error) {
	authKey, err := token.AuthKeyFromFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load auth key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   keyID,
		TeamID:  teamID,
	})
	if production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNSProvider{
		client: client,
		topic:  topic,
	}, nil
}

func (a *APNSProvider) SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error) {
	response, err := a.client.PushWithContext(ctx, buildAPNSNotification(a.topic, request))
	if err != nil {
		return &NotificationResponse{
			Success: false,
			Error:   err.Error(),
			Token:   request.Token,
		}, fmt.Errorf("failed to push to APNS: %w", err)
	}

	if !response.Sent() {
		return &NotificationResponse{
			Success: false,
			Error:   response.Reason,
			Token:   request.Token,
		}, fmt.Errorf("APNS error: %s", response.Reason)
	}

	return &NotificationResponse{
		MessageID: response.ApnsID,
		Success:   true,
		Token:     request.Token,
	}, nil
}

func buildAPNSNotification(topic string, request *NotificationRequest) *apns2.Notification {
	p := payload.NewPayload().
		AlertTitle(request.Title).
		AlertBody(request.Body)

	if request.Sound != "" {
		p = p.Sound(request.Sound)
	}
	if request.Category != "" {
		p = p.Category(request.Category)
	}
	for k, v := range request.Data {
		p = p.Custom(k, v)
	}

	notification := &apns2.Notification{
		DeviceToken: request.Token,
		Topic:       topic,
		Payload:     p,
		Priority:    apns2.PriorityLow,
		CollapseID:  request.CollapseKey,
	}
	if request.Priority == "high" {
		notification.Priority = apns2.PriorityHigh
	}
	if request.TTLSeconds > 0 {
		notification.Expiration = time.Now().Add(time.Duration(request.TTLSeconds) * time.Second)
	}

	return notification
}
