package homework

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultAPIBaseURL is where the Praktikum user API lives.
const DefaultAPIBaseURL = "https://praktikum.yandex.ru"

const homeworkStatusesPath = "/api/user_api/homework_statuses/"

// Homework is a single submission as reported by the homework API.
type Homework struct {
	ID              int64  `json:"id,omitempty"`
	Name            string `json:"homework_name"`
	Status          Status `json:"status"`
	ReviewerComment string `json:"reviewer_comment,omitempty"`
	DateUpdated     string `json:"date_updated,omitempty"`
	LessonName      string `json:"lesson_name,omitempty"`
}

// StatusResponse is the body of a homework_statuses call. Homeworks are
// ordered newest first.
type StatusResponse struct {
	Homeworks   []Homework `json:"homeworks"`
	CurrentDate int64      `json:"current_date,omitempty"`

	// Error is either a string or an object with a nested "error" string,
	// depending on which layer of the API rejected the request.
	Error   json.RawMessage `json:"error,omitempty"`
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
}

func (sr *StatusResponse) errorText() string {
	if len(sr.Error) == 0 || string(sr.Error) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(sr.Error, &s); err == nil {
		return s
	}
	var nested struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(sr.Error, &nested); err == nil && nested.Error != "" {
		return nested.Error
	}
	return string(sr.Error)
}

// APIError is an error envelope returned by the homework API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("homework API error %d: %s: %s", e.StatusCode, e.Code, e.Message)
	case e.Message != "":
		return fmt.Sprintf("homework API error %d: %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("homework API error %d", e.StatusCode)
	}
}

// StatusFetcher fetches homework statuses updated since a Unix timestamp.
type StatusFetcher interface {
	FetchStatuses(ctx context.Context, fromDate int64) (*StatusResponse, error)
}

// PraktikumClient calls the homework_statuses endpoint.
type PraktikumClient struct {
	token      string
	apiBaseURL string
	client     *http.Client
	now        func() time.Time
	log        *zap.SugaredLogger
}

// NewPraktikumClient returns a client authenticating with the OAuth token.
func NewPraktikumClient(token string, options ...func(*PraktikumClient)) (*PraktikumClient, error) {
	if token == "" {
		return nil, errors.New("praktikum token must be specified")
	}
	pc := &PraktikumClient{
		token:      token,
		apiBaseURL: DefaultAPIBaseURL,
		client:     initHTTPClient(defaultRequestTimeout),
		now:        time.Now,
		log:        zap.NewNop().Sugar(),
	}
	for _, o := range options {
		o(pc)
	}
	return pc, nil
}

// WithPraktikumLogger sets the logger used by the client.
func WithPraktikumLogger(logger *zap.SugaredLogger) func(*PraktikumClient) {
	return func(pc *PraktikumClient) {
		pc.log = logger
	}
}

// WithPraktikumBaseURL points the client at another API host, such as a
// test server.
func WithPraktikumBaseURL(base string) func(*PraktikumClient) {
	return func(pc *PraktikumClient) {
		if base != "" {
			pc.apiBaseURL = base
		}
	}
}

// WithPraktikumTimeout sets the HTTP timeout for each request.
func WithPraktikumTimeout(timeout time.Duration) func(*PraktikumClient) {
	return func(pc *PraktikumClient) {
		pc.client = initHTTPClient(timeout)
	}
}

// FetchStatuses returns homeworks changed since fromDate. A zero fromDate
// means now.
func (pc *PraktikumClient) FetchStatuses(ctx context.Context, fromDate int64) (*StatusResponse, error) {
	if fromDate == 0 {
		fromDate = pc.now().Unix()
	}
	endpoint := pc.apiBaseURL + homeworkStatusesPath
	params := url.Values{}
	params.Set("from_date", strconv.FormatInt(fromDate, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "error building homework API request")
	}
	req.Header.Add("Authorization", "OAuth "+pc.token)
	req.Header.Add("Accept", "application/json")

	pc.log.Debugw("fetching homework statuses", "from_date", fromDate)
	resp, err := pc.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "error reaching homework API: %s", endpoint)
	}
	defer resp.Body.Close()
	return statusesFromJSON(resp.StatusCode, resp.Body)
}

func statusesFromJSON(statusCode int, r io.Reader) (*StatusResponse, error) {
	var apiResponse StatusResponse
	if err := decodeResponse(r, &apiResponse); err != nil {
		if statusCode != http.StatusOK {
			return nil, &APIError{StatusCode: statusCode}
		}
		return nil, errors.Wrap(err, "homework API response")
	}
	errText := apiResponse.errorText()
	if statusCode != http.StatusOK || errText != "" || apiResponse.Code != "" {
		msg := apiResponse.Message
		if msg == "" {
			msg = errText
		}
		return nil, &APIError{
			StatusCode: statusCode,
			Code:       apiResponse.Code,
			Message:    msg,
		}
	}
	return &apiResponse, nil
}
