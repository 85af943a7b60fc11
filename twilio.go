package homework

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// TwilioSMSSender sends SMS messages. As a Notifier it texts a single
// recipient.
type TwilioSMSSender struct {
	AccountSID string
	AuthToken  string
	Sender     string
	Recipient  string

	apiBase string
	client  *http.Client
	log     *zap.SugaredLogger
}

// NewTwilioSMSSender returns a sender for the Twilio account, sending from
// the sender phone number to recipient.
func NewTwilioSMSSender(
	sid, token, sender, recipient string,
	options ...func(*TwilioSMSSender)) (*TwilioSMSSender, error) {

	if sid == "" || token == "" {
		return nil, errors.New("twilio account SID and auth token must be specified")
	}
	if sender == "" || recipient == "" {
		return nil, errors.New("twilio sender and recipient must be specified")
	}
	tss := &TwilioSMSSender{
		AccountSID: sid,
		AuthToken:  token,
		Sender:     sender,
		Recipient:  recipient,
		apiBase:    twilioAPIBase,
		client:     initHTTPClient(defaultRequestTimeout),
		log:        zap.NewNop().Sugar(),
	}
	for _, o := range options {
		o(tss)
	}
	return tss, nil
}

// WithTwilioLogger sets the logger used by the sender.
func WithTwilioLogger(logger *zap.SugaredLogger) func(*TwilioSMSSender) {
	return func(tss *TwilioSMSSender) {
		tss.log = logger
	}
}

// WithTwilioAPIBase points the sender at another API host.
func WithTwilioAPIBase(base string) func(*TwilioSMSSender) {
	return func(tss *TwilioSMSSender) {
		tss.apiBase = base
	}
}

// Notify texts message to the configured recipient.
func (tss *TwilioSMSSender) Notify(ctx context.Context, message string) error {
	return tss.Send(ctx, tss.Recipient, message)
}

// Send sends message to phone number 'to' in an SMS.
func (tss *TwilioSMSSender) Send(ctx context.Context, to, message string) error {
	values := url.Values{}
	values.Set("To", to)
	values.Set("From", tss.Sender)
	values.Set("Body", message)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", tss.apiBase, tss.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(tss.AccountSID, tss.AuthToken)
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Add("Accept", "application/json")

	resp, err := tss.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "error reaching Twilio API")
	}

	var apiResponse struct {
		MessageSID    string `json:"sid"`
		MessageStatus string `json:"status"`
		To            string `json:"to"`
		ErrCode       int    `json:"error_code"`
		ErrMessage    string `json:"error_message"`
	}

	defer resp.Body.Close()
	if err := decodeResponse(resp.Body, &apiResponse); err != nil {
		return errors.Wrap(err, "Twilio response")
	}

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("Twilio error %d: %s", apiResponse.ErrCode, apiResponse.ErrMessage)
	}
	if isNotOKMessageStatus(apiResponse.MessageStatus) {
		return fmt.Errorf("bad message status: %s", apiResponse.MessageStatus)
	}
	tss.log.Infow("sent SMS",
		"message_sid", apiResponse.MessageSID,
		"message_status", apiResponse.MessageStatus,
		"message_to", apiResponse.To)

	return nil
}

func isNotOKMessageStatus(status string) bool {
	okStatuses := []string{"accepted", "queued", "sending", "delivered"}
	for _, s := range okStatuses {
		if status == s {
			return false
		}
	}
	return true
}
