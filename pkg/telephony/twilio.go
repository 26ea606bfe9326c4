package telephony

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

type TwilioProvider struct {
	client     *twilio.RestClient
	fromNumber string
	voice      string
}

func NewTwilioProvider(accountSID, authToken, fromNumber, voice string) *TwilioProvider {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioProvider{
		client:     client,
		fromNumber: fromNumber,
		voice:      voice,
	}
}

func (t *TwilioProvider) Name() string { return "twilio" }

func (t *TwilioProvider) SendSMS(ctx context.Context, request *SMSRequest) (*SMSResponse, error) {
	params := &api.CreateMessageParams{}
	params.SetTo(request.To)
	params.SetFrom(t.getFromNumber(request.From))
	params.SetBody(request.Message)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return &SMSResponse{
			Status: "failed",
			Error:  err.Error(),
		}, fmt.Errorf("failed to send SMS: %w", err)
	}

	out := &SMSResponse{Status: "queued"}
	if resp.Sid != nil {
		out.MessageID = *resp.Sid
	}
	if resp.Status != nil {
		out.Status = string(*resp.Status)
	}
	return out, nil
}

// PlaceCall uses inline TwiML so no webhook has to be reachable.
func (t *TwilioProvider) PlaceCall(ctx context.Context, request *CallRequest) (*CallResponse, error) {
	params := &api.CreateCallParams{}
	params.SetTo(request.To)
	params.SetFrom(t.getFromNumber(request.From))
	params.SetTwiml(BuildSayTwiML(request.Script, t.voice, request.Repeat))
	params.SetTimeout(30)

	resp, err := t.client.Api.CreateCall(params)
	if err != nil {
		return &CallResponse{
			Status: "failed",
			Error:  err.Error(),
		}, fmt.Errorf("failed to place call: %w", err)
	}

	out := &CallResponse{Status: "queued"}
	if resp.Sid != nil {
		out.CallID = *resp.Sid
	}
	if resp.Status != nil {
		out.Status = string(*resp.Status)
	}
	return out, nil
}

func (t *TwilioProvider) getFromNumber(from string) string {
	if from != "" {
		return from
	}
	return t.fromNumber
}

// BuildSayTwiML renders a <Response> that speaks script repeat times.
func BuildSayTwiML(script, voice string, repeat int) string {
	if repeat < 1 {
		repeat = 1
	}

	var escaped strings.Builder
	_ = xml.EscapeText(&escaped, []byte(script))

	var b strings.Builder
	b.WriteString("<Response>")
	for i := 0; i < repeat; i++ {
		if i > 0 {
			b.WriteString(`<Pause length="1"/>`)
		}
		if voice != "" {
			fmt.Fprintf(&b, `<Say voice="%s">`, voice)
		} else {
			b.WriteString("<Say>")
		}
		b.WriteString(escaped.String())
		b.WriteString("</Say>")
	}
	b.WriteString("</Response>")
	return b.String()
}
