package homework

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const defaultRequestTimeout = 20 * time.Second

func initHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &http.Client{
		Timeout: timeout,
	}
}

// decodeResponse unmarshals a JSON payload into dest, which must be a pointer.
func decodeResponse(payload io.Reader, dest interface{}) error {
	d := json.NewDecoder(payload)
	if err := d.Decode(dest); err != nil {
		return errors.Wrap(err, "error decoding JSON body")
	}
	return nil
}
