package internal

import (
	"bytes"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/jeja2023/tp/errors"
)

// Error builds the error of a failed call from its status and body. The message is
// the detail or message field of a JSON body, the raw body otherwise.
func Error(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))

	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		var detail string
		switch {
		case json.Unmarshal(payload.Detail, &detail) == nil && detail != "":
			msg = detail
		case len(payload.Detail) > 0 && string(payload.Detail) != "null":
			msg = string(payload.Detail)
		case payload.Message != "":
			msg = payload.Message
		}
	}

	if msg == "" {
		msg = http.StatusText(status)
	}

	return errors.New(msg, errors.WithCode(status))
}

// Check returns the error carried by res when its status is not 2xx. The body is
// consumed in that case.
func Check(res *http.Response) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}

	data, err := ioutil.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return errors.New("could not read error response", errors.WithCode(res.StatusCode), errors.WithCause(err))
	}
	return Error(res.StatusCode, data)
}

// Decode checks res and decodes its JSON body in v. A nil v discards the body.
func Decode(res *http.Response, v interface{}) error {
	defer res.Body.Close()

	if err := Check(res); err != nil {
		return err
	}

	if v == nil {
		_, err := io.Copy(ioutil.Discard, res.Body)
		return err
	}

	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return errors.New("invalid response from server", errors.WithCode(http.StatusBadGateway), errors.WithCause(err))
	}
	return nil
}

// JSONBody encodes v for a request body.
func JSONBody(v interface{}) (io.Reader, error) {
	body := &bytes.Buffer{}
	if err := json.NewEncoder(body).Encode(v); err != nil {
		return nil, err
	}
	return body, nil
}
