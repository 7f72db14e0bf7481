package publishers

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type sqsClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type awsSQSSender struct {
	queueURL string
	client   sqsClient
}

func newAWSSQSSender(ctx context.Context, cfg *AWSSQSPublisherConfig) (queueSender, error) {
	if cfg == nil {
		return nil, errors.New("aws sqs configuration is missing")
	}
	awsCfg, err := loadAWSConfig(ctx, cfg.Region, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		return nil, err
	}
	return &awsSQSSender{queueURL: cfg.QueueURL, client: sqs.NewFromConfig(awsCfg)}, nil
}

func (s *awsSQSSender) MaxBodyBytes() int { return sqsMaxBodyBytes }

// Send enqueues the body with the message attributes typed for SQS.
func (s *awsSQSSender) Send(ctx context.Context, msg message) (string, error) {
	attrs := make(map[string]types.MessageAttributeValue, len(msg.Attributes))
	for key, val := range msg.Attributes {
		attrs[key] = types.MessageAttributeValue{
			DataType:    aws.String(attributeDataType(key)),
			StringValue: aws.String(val),
		}
	}

	resp, err := s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          aws.String(s.queueURL),
		MessageBody:       aws.String(string(msg.Body)),
		MessageAttributes: attrs,
	})
	if err != nil {
		return "", fmt.Errorf("send message to sqs: %w", err)
	}
	return aws.ToString(resp.MessageId), nil
}

// loadAWSConfig resolves an aws.Config pinned to static credentials. Shared by the SQS and SNS senders.
func loadAWSConfig(ctx context.Context, region, accessKeyID, secretAccessKey string) (aws.Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	awsCfg, err := awscfg.LoadDefaultConfig(ctx,
		awscfg.WithRegion(region),
		awscfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}
