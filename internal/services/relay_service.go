package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"happyshaa/internal/models"
	"happyshaa/internal/utils"
	"happyshaa/pkg/logger"
	"happyshaa/pkg/maps"
	"happyshaa/pkg/metrics"
	"happyshaa/pkg/telephony"
)

const (
	geocodeTimeout = 5 * time.Second
	voiceRepeat    = 2
)

// RelayService delivers one alert to one phone number over SMS and/or a
// voice call.
type RelayService interface {
	Notify(ctx context.Context, req *models.NotifyRequest) *models.NotifyResponse
}

type relayService struct {
	telephony telephony.Provider
	geocoder  maps.Geocoder
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

// NewRelayService builds the relay. geocoder may be nil.
func NewRelayService(provider telephony.Provider, geocoder maps.Geocoder, log *logger.Logger, m *metrics.Metrics) RelayService {
	return &relayService{
		telephony: provider,
		geocoder:  geocoder,
		logger:    log.WithField("component", "relay"),
		metrics:   m,
	}
}

func (s *relayService) Notify(ctx context.Context, req *models.NotifyRequest) *models.NotifyResponse {
	if !req.SendSMS && !req.SendCall {
		return &models.NotifyResponse{Error: ErrNoChannel.Error()}
	}

	log := s.logger.WithField("to", utils.MaskPhone(req.PhoneNumber))
	address := s.address(ctx, req.GPSLocation)
	resp := &models.NotifyResponse{Success: true}
	var failures []string

	if req.SendSMS {
		result := &models.ChannelResult{}
		out, err := s.telephony.SendSMS(ctx, &telephony.SMSRequest{
			To:      req.PhoneNumber,
			Message: BuildAlertSMS(req, address),
		})
		if err != nil {
			result.Error = err.Error()
			failures = append(failures, "sms: "+err.Error())
			log.WithError(err).Warn("Alert SMS failed")
		} else {
			result.Success = true
			result.SID = out.MessageID
		}
		s.metrics.RecordNotification("sms", result.Success)
		resp.Results.SMS = result
	}

	if req.SendCall {
		result := &models.ChannelResult{}
		out, err := s.telephony.PlaceCall(ctx, &telephony.CallRequest{
			To:     req.PhoneNumber,
			Script: BuildAlertScript(req, address),
			Repeat: voiceRepeat,
		})
		if err != nil {
			result.Error = err.Error()
			failures = append(failures, "call: "+err.Error())
			log.WithError(err).Warn("Alert call failed")
		} else {
			result.Success = true
			result.SID = out.CallID
		}
		s.metrics.RecordNotification("call", result.Success)
		resp.Results.Call = result
	}

	if len(failures) > 0 {
		resp.Success = false
		resp.Error = strings.Join(failures, "; ")
	}
	return resp
}

func (s *relayService) address(ctx context.Context, p *models.GeoPoint) string {
	if s.geocoder == nil || p == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, geocodeTimeout)
	defer cancel()

	res, err := s.geocoder.ReverseGeocode(ctx, p.Latitude, p.Longitude)
	if err != nil {
		s.logger.WithError(err).Warn("Reverse geocoding failed")
		return ""
	}
	return res.FirstAddress()
}

func describe(req *models.NotifyRequest) string {
	kind := models.ParseDetectionType(req.DetectionType)
	what := "a possible emergency"
	if kind != models.DetectionNone {
		what = fmt.Sprintf("a possible %s emergency", kind)
	}
	if d := strings.TrimSpace(req.Description); d != "" {
		what += " (" + strings.TrimSuffix(d, ".") + ")"
	}
	return what
}

// BuildAlertSMS renders the text message sent to a contact.
func BuildAlertSMS(req *models.NotifyRequest, address string) string {
	var b strings.Builder
	if req.Emergency911 {
		fmt.Fprintf(&b, "EMERGENCY ALERT: automated detection of %s.", describe(req))
	} else {
		fmt.Fprintf(&b, "EMERGENCY ALERT for %s: Happyshaa detected %s for someone who listed you as an emergency contact.", req.ContactName, describe(req))
	}
	if address != "" {
		fmt.Fprintf(&b, " Near: %s.", address)
	}
	if req.GPSLocation != nil {
		fmt.Fprintf(&b, " Location: %s", req.GPSLocation.MapsURL())
	}
	if req.PhotoURL != "" {
		fmt.Fprintf(&b, " Photo: %s", req.PhotoURL)
	}
	b.WriteString(" Please check on them immediately.")
	return b.String()
}

// BuildAlertScript renders the text read aloud on a voice call.
func BuildAlertScript(req *models.NotifyRequest, address string) string {
	var b strings.Builder
	if req.Emergency911 {
		fmt.Fprintf(&b, "This is an automated emergency alert. Happyshaa detected %s.", describe(req))
	} else {
		fmt.Fprintf(&b, "Hello %s. This is an automated emergency alert from Happyshaa. We detected %s for someone who listed you as an emergency contact.", req.ContactName, describe(req))
	}
	switch {
	case address != "":
		fmt.Fprintf(&b, " Their last known location is near %s.", address)
	case req.GPSLocation != nil:
		fmt.Fprintf(&b, " Their last known location is latitude %.5f, longitude %.5f.", req.GPSLocation.Latitude, req.GPSLocation.Longitude)
	}
	if !req.Emergency911 {
		if req.SendSMS {
			b.WriteString(" A map link and photo have been sent to you by text message.")
		}
		b.WriteString(" Please check on them immediately.")
	}
	return b.String()
}
