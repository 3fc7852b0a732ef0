// internal/events/sns.go
package events

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"zomato-recommender/internal/common/errors"
	"zomato-recommender/internal/models"
)

// Publisher is the subset of the SNS client used by SNSSink.
type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSink fans events out to a topic so downstream consumers can build
// feedback loops without reading the database.
type SNSSink struct {
	publisher Publisher
	topicARN  string
}

func NewSNSSink(publisher Publisher, topicARN string) *SNSSink {
	return &SNSSink{publisher: publisher, topicARN: topicARN}
}

// NewSNSPublisher loads the default AWS credential chain for region.
func NewSNSPublisher(ctx context.Context, region string) (*sns.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return sns.NewFromConfig(cfg), nil
}

func (s *SNSSink) Name() string { return "sns" }

func (s *SNSSink) Record(ctx context.Context, event models.RecommendationEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return errors.NewEventLogFailedError(s.Name(), err)
	}

	_, err = s.publisher.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"endpoint": {
				DataType:    aws.String("String"),
				StringValue: aws.String(event.Endpoint),
			},
		},
	})
	if err != nil {
		return errors.NewEventLogFailedError(s.Name(), err)
	}
	return nil
}
