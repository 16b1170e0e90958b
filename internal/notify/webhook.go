package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// PayloadType selects how Webhook renders its configured payload map
// into an HTTP request body, per spec §4.6.
type PayloadType string

const (
	PayloadJSON    PayloadType = "json"
	PayloadForm    PayloadType = "x-www-form-urlencoded"
	PayloadParam   PayloadType = "param"
	msgPlaceholder             = "$MSG"
)

// Webhook delivers a notification by substituting $MSG into a
// configured payload template and sending it with the configured
// method, content type, and timeout. Grounded on the teacher's
// notify.Slack — same Client-with-timeout/Send shape — generalized
// from a fixed Slack JSON body to the three payload_type renderings
// the spec requires.
type Webhook struct {
	URL         string
	Method      string
	PayloadType PayloadType
	Payload     map[string]string
	Client      *http.Client
}

// NewWebhook builds a Webhook from its configured fields. Returns nil
// when url is empty, matching the teacher's NewSlack("") == nil idiom
// so a Multi fan-out can include an unconfigured webhook safely.
func NewWebhook(rawURL, method string, payloadType PayloadType, payload map[string]string, timeout time.Duration) *Webhook {
	if rawURL == "" {
		return nil
	}
	if method == "" {
		method = http.MethodPost
	}
	if payloadType == "" {
		payloadType = PayloadJSON
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Webhook{
		URL:         rawURL,
		Method:      method,
		PayloadType: payloadType,
		Payload:     payload,
		Client:      &http.Client{Timeout: timeout},
	}
}

// Send renders title+text as a single message, substitutes it for
// every $MSG occurrence in the payload template, and delivers it.
func (w *Webhook) Send(ctx context.Context, title, text string) error {
	if w == nil || w.URL == "" {
		return errors.New("webhook disabled")
	}
	msg := title
	if text != "" {
		msg = title + "\n" + text
	}

	rendered := make(map[string]string, len(w.Payload))
	for k, v := range w.Payload {
		rendered[k] = strings.ReplaceAll(v, msgPlaceholder, msg)
	}

	req, err := w.buildRequest(ctx, rendered)
	if err != nil {
		return err
	}

	resp, err := w.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return errors.New("webhook non-2xx")
	}
	return nil
}

func (w *Webhook) buildRequest(ctx context.Context, rendered map[string]string) (*http.Request, error) {
	switch w.PayloadType {
	case PayloadForm:
		body := url.Values{}
		for k, v := range rendered {
			body.Set(k, v)
		}
		req, err := http.NewRequestWithContext(ctx, w.Method, w.URL, strings.NewReader(body.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil

	case PayloadParam:
		u, err := url.Parse(w.URL)
		if err != nil {
			return nil, err
		}
		q := u.Query()
		for k, v := range rendered {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
		return http.NewRequestWithContext(ctx, w.Method, u.String(), nil)

	default: // PayloadJSON
		body, err := json.Marshal(rendered)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, w.Method, w.URL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}
}
