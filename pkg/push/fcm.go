package push

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

type fcmSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type FCMProvider struct {
	client fcmSender
}

func NewFCMProvider(ctx context.Context, projectID, credentialsFile string) (*FCMProvider, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	return &FCMProvider{client: client}, nil
}

func (f *FCMProvider) SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error) {
	id, err := f.client.Send(ctx, buildFCMMessage(request))
	if err != nil {
		return &NotificationResponse{
			Success: false,
			Error:   err.Error(),
			Token:   request.Token,
		}, fmt.Errorf("failed to send FCM message: %w", err)
	}

	return &NotificationResponse{
		MessageID: id,
		Success:   true,
		Token:     request.Token,
	}, nil
}

func buildFCMMessage(request *NotificationRequest) *messaging.Message {
	message := &messaging.Message{
		Token: request.Token,
		Data:  request.Data,
		Notification: &messaging.Notification{
			Title: request.Title,
			Body:  request.Body,
		},
	}

	priority := "normal"
	if request.Priority == "high" {
		priority = "high"
	}

	android := &messaging.AndroidConfig{
		Priority:    priority,
		CollapseKey: request.CollapseKey,
		Notification: &messaging.AndroidNotification{
			Sound:     request.Sound,
			ChannelID: request.ChannelID,
			Tag:       request.CollapseKey,
		},
	}
	if request.TTLSeconds > 0 {
		ttl := time.Duration(request.TTLSeconds) * time.Second
		android.TTL = &ttl
	}
	message.Android = android

	message.APNS = &messaging.APNSConfig{
		Payload: &messaging.APNSPayload{
			Aps: &messaging.Aps{
				Sound:    request.Sound,
				Category: request.Category,
			},
		},
	}

	return message
}
