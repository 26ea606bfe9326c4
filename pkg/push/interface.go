package push

import (
	"context"
	"errors"
)

var ErrNoProvider = errors.New("no push provider for platform")

type PushProvider interface {
	SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error)
}

type NotificationRequest struct {
	Token       string            `json:"token"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
	Sound       string            `json:"sound,omitempty"`
	Priority    string            `json:"priority,omitempty"`
	TTLSeconds  int               `json:"ttl,omitempty"`
	CollapseKey string            `json:"collapse_key,omitempty"`
	Category    string            `json:"category,omitempty"`
	ChannelID   string            `json:"channel_id,omitempty"`
}

type NotificationResponse struct {
	MessageID string `json:"message_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Token     string `json:"token,omitempty"`
}

const (
	PlatformAndroid = "android"
	PlatformIOS     = "ios"
)

// Defaults fill fields a request leaves empty.
type Defaults struct {
	Sound     string
	Category  string
	ChannelID string
}

// Router picks a provider by device platform.
type Router struct {
	providers map[string]PushProvider
	defaults  Defaults
}

func NewRouter() *Router {
	return &Router{providers: make(map[string]PushProvider)}
}

func (r *Router) Register(platform string, p PushProvider) {
	r.providers[platform] = p
}

func (r *Router) SetDefaults(d Defaults) {
	r.defaults = d
}

func (r *Router) Enabled() bool {
	return len(r.providers) > 0
}

func (r *Router) Send(ctx context.Context, platform string, request *NotificationRequest) (*NotificationResponse, error) {
	p, ok := r.providers[platform]
	if !ok {
		// android tokens are FCM tokens, FCM also reaches iOS devices
		p, ok = r.providers[PlatformAndroid]
	}
	if !ok {
		return nil, ErrNoProvider
	}
	return p.SendNotification(ctx, r.withDefaults(request))
}

func (r *Router) withDefaults(request *NotificationRequest) *NotificationRequest {
	req := *request
	if req.Sound == "" {
		req.Sound = r.defaults.Sound
	}
	if req.Category == "" {
		req.Category = r.defaults.Category
	}
	if req.ChannelID == "" {
		req.ChannelID = r.defaults.ChannelID
	}
	return &req
}
