package homework

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// SNSPublisher is the part of the SNS client the notifier uses.
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes messages to an AWS SNS topic.
type SNSNotifier struct {
	TopicARN string

	client SNSPublisher
	log    *zap.SugaredLogger
}

// NewSNSNotifier loads the default AWS configuration for region and returns
// a notifier publishing to topicARN.
func NewSNSNotifier(ctx context.Context, region, topicARN string, options ...func(*SNSNotifier)) (*SNSNotifier, error) {
	if topicARN == "" {
		return nil, errors.New("SNS topic ARN must be specified")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, errors.Wrap(err, "error loading AWS config")
	}
	return newSNSNotifier(sns.NewFromConfig(cfg), topicARN, options...), nil
}

func newSNSNotifier(client SNSPublisher, topicARN string, options ...func(*SNSNotifier)) *SNSNotifier {
	sn := &SNSNotifier{
		TopicARN: topicARN,
		client:   client,
		log:      zap.NewNop().Sugar(),
	}
	for _, o := range options {
		o(sn)
	}
	return sn
}

// WithSNSLogger sets the logger used by the notifier.
func WithSNSLogger(logger *zap.SugaredLogger) func(*SNSNotifier) {
	return func(sn *SNSNotifier) {
		sn.log = logger
	}
}

// Notify publishes message to the topic.
func (sn *SNSNotifier) Notify(ctx context.Context, message string) error {
	out, err := sn.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(sn.TopicARN),
		Subject:  aws.String("Homework review"),
		Message:  aws.String(message),
	})
	if err != nil {
		return errors.Wrapf(err, "error publishing to SNS topic %s", sn.TopicARN)
	}
	sn.log.Infow("published SNS message",
		"topic_arn", sn.TopicARN,
		"message_id", aws.ToString(out.MessageId))
	return nil
}
