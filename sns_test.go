package homework

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakePublisher struct {
	input *sns.PublishInput
	err   error
}

func (p *fakePublisher) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	p.input = in
	if p.err != nil {
		return nil, p.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSNSNotifierPublishes(t *testing.T) {
	const arn = "arn:aws:sns:us-east-1:123456789012:homework"
	pub := &fakePublisher{}
	sn := newSNSNotifier(pub, arn, WithSNSLogger(zaptest.NewLogger(t).Sugar()))

	require.NoError(t, sn.Notify(context.Background(), "Проект на ревью."))
	require.NotNil(t, pub.input)
	assert.Equal(t, arn, aws.ToString(pub.input.TopicArn))
	assert.Equal(t, "Проект на ревью.", aws.ToString(pub.input.Message))
}

func TestSNSNotifierError(t *testing.T) {
	sn := newSNSNotifier(&fakePublisher{err: errors.New("throttled")}, "arn:topic")
	err := sn.Notify(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
	assert.Contains(t, err.Error(), "arn:topic")
}

func TestNewSNSNotifierRequiresTopic(t *testing.T) {
	_, err := NewSNSNotifier(context.Background(), "us-east-1", "")
	assert.Error(t, err)
}
