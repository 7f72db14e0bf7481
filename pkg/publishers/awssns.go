package publishers

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type snsClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type awsSNSSender struct {
	topicARN string
	client   snsClient
}

func newAWSSNSSender(ctx context.Context, cfg *AWSSNSPublisherConfig) (queueSender, error) {
	if cfg == nil {
		return nil, errors.New("aws sns configuration is missing")
	}
	awsCfg, err := loadAWSConfig(ctx, cfg.Region, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		return nil, err
	}
	return &awsSNSSender{topicARN: cfg.TopicARN, client: sns.NewFromConfig(awsCfg)}, nil
}

func (s *awsSNSSender) MaxBodyBytes() int { return snsMaxBodyBytes }

// Send publishes the body to the topic. Subscription filter policies can match on the attributes,
// e.g. {"source": ["sheet"], "has_error": ["false"]}.
func (s *awsSNSSender) Send(ctx context.Context, msg message) (string, error) {
	attrs := make(map[string]types.MessageAttributeValue, len(msg.Attributes))
	for key, val := range msg.Attributes {
		attrs[key] = types.MessageAttributeValue{
			DataType:    aws.String(attributeDataType(key)),
			StringValue: aws.String(val),
		}
	}

	resp, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn:          aws.String(s.topicARN),
		Message:           aws.String(string(msg.Body)),
		Subject:           aws.String(fmt.Sprintf("portco-news %s: %s records", msg.Source, msg.Attributes[AttrRecordCount])),
		MessageAttributes: attrs,
	})
	if err != nil {
		return "", fmt.Errorf("publish message to sns: %w", err)
	}
	return aws.ToString(resp.MessageId), nil
}
