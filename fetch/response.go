package fetch

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// maxBodySize bounds how much of a response is read
const maxBodySize = 64 << 20

// readResponse classifies a response and returns its JSON payload
func readResponse(res *http.Response) (json.RawMessage, error) {
	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return nil, &NetworkError{Err: errors.Wrap(err, "failed to read response body")}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &HTTPError{
			StatusCode: res.StatusCode,
			Body:       string(bytes.TrimSpace(body)),
		}
	}

	var v interface{}
	err = json.Unmarshal(body, &v)
	if err != nil {
		return nil, &EmptyResponseError{Err: err}
	}
	if isEmpty(v) {
		return nil, &EmptyResponseError{}
	}

	return json.RawMessage(body), nil
}

// isEmpty reports whether a decoded JSON value carries no data.
// An empty array is indistinguishable from a broken proxy placeholder,
// so a board without threads is reported as a failure too.
func isEmpty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case float64:
		return t == 0
	case string:
		return t == ""
	case []interface{}:
		return len(t) == 0
	}
	return false
}
