package telephony

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snsTypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// AWSSNSProvider sends SMS only.
type AWSSNSProvider struct {
	client   *sns.Client
	senderID string
}

func NewAWSSNSProvider(ctx context.Context, region, accessKeyID, secretAccessKey, senderID string) (*AWSSNSProvider, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if accessKeyID != "" && secretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSNSProvider{
		client:   sns.NewFromConfig(cfg),
		senderID: senderID,
	}, nil
}

func (a *AWSSNSProvider) Name() string { return "sns" }

func (a *AWSSNSProvider) SendSMS(ctx context.Context, request *SMSRequest) (*SMSResponse, error) {
	attrs := map[string]snsTypes.MessageAttributeValue{
		// emergency messages must not be dropped as promotional
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String("Transactional"),
		},
	}
	if a.senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = snsTypes.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(a.senderID),
		}
	}

	resp, err := a.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(request.To),
		Message:           aws.String(request.Message),
		MessageAttributes: attrs,
	})
	if err != nil {
		return &SMSResponse{
			Status: "failed",
			Error:  err.Error(),
		}, fmt.Errorf("failed to publish SMS: %w", err)
	}

	return &SMSResponse{
		MessageID: aws.ToString(resp.MessageId),
		Status:    "sent",
	}, nil
}

func (a *AWSSNSProvider) PlaceCall(ctx context.Context, request *CallRequest) (*CallResponse, error) {
	return &CallResponse{Status: "unsupported", Error: ErrVoiceUnsupported.Error()}, ErrVoiceUnsupported
}
