package homework

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestMultiNotifierDeliversThroughEveryChannel(t *testing.T) {
	var got []string
	ok := NotifierFunc(func(_ context.Context, msg string) error {
		got = append(got, "ok:"+msg)
		return nil
	})
	failing := NotifierFunc(func(_ context.Context, msg string) error {
		return errors.New("sms quota exceeded")
	})
	alsoFailing := NotifierFunc(func(_ context.Context, msg string) error {
		return errors.New("topic not found")
	})

	mn := MultiNotifier{failing, ok, nil, alsoFailing}
	err := mn.Notify(context.Background(), "hello")

	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Contains(t, err.Error(), "sms quota exceeded")
	assert.Contains(t, err.Error(), "topic not found")
	assert.Equal(t, []string{"ok:hello"}, got)
}

func TestMultiNotifierEmpty(t *testing.T) {
	assert.NoError(t, MultiNotifier{}.Notify(context.Background(), "hello"))
}
