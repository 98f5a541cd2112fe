// Package apiclient talks to the faqforge HTTP API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/PuerkitoBio/goquery"
	"github.com/myrjola/faqforge/internal/errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	neturl "net/url"
	"strings"
	"time"
)

// SessionCookieName is the name of the server's session cookie.
const SessionCookieName = "session"

type Client struct {
	client *http.Client
	url    string
	base   *neturl.URL
	jar    *cookiejar.Jar
}

// New creates a client for the server at url. The client keeps the server session in a cookie jar.
func New(url string) (*Client, error) {
	url = strings.TrimSuffix(url, "/")
	base, err := neturl.Parse(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse server url", slog.String("url", url))
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "new cookie jar")
	}
	return &Client{
		client: &http.Client{Jar: jar}, //nolint:exhaustruct // defaults are fine
		url:    url,
		base:   base,
		jar:    jar,
	}, nil
}

// SessionCookie returns the current server session as a name=value pair, or an empty string without a session.
func (c *Client) SessionCookie() string {
	for _, cookie := range c.jar.Cookies(c.base) {
		if cookie.Name == SessionCookieName {
			return cookie.Name + "=" + cookie.Value
		}
	}
	return ""
}

// SetSessionCookie resumes a session previously returned by SessionCookie.
func (c *Client) SetSessionCookie(raw string) error {
	if raw == "" {
		return nil
	}
	cookies, err := http.ParseCookie(raw)
	if err != nil {
		return errors.Wrap(err, "parse session cookie")
	}
	for _, cookie := range cookies {
		cookie.Path = "/"
	}
	c.jar.SetCookies(c.base, cookies)
	return nil
}

// WaitForReady calls the health endpoint until it gets a HTTP 200 response, ctx is cancelled, or timeout passes.
func (c *Client) WaitForReady(ctx context.Context, timeout time.Duration) error {
	startTime := time.Now()
	for {
		if err := c.Healthy(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "context cancelled")
		default:
			if time.Since(startTime) >= timeout {
				return errors.New("timeout waiting for server to be ready", slog.String("url", c.url))
			}
			time.Sleep(100 * time.Millisecond) //nolint:mnd // 100ms
		}
	}
}

// Healthy checks the health endpoint.
func (c *Client) Healthy(ctx context.Context) error {
	var status struct {
		Status string `json:"status"`
	}
	if err := c.getJSON(ctx, "/api/healthy", &status); err != nil {
		return err
	}
	if status.Status != "ok" {
		return errors.New("server not healthy", slog.String("status", status.Status))
	}
	return nil
}

// GetDoc fetches an HTML page and returns a goquery document.
func (c *Client) GetDoc(ctx context.Context, urlPath string) (*goquery.Document, error) {
	resp, err := c.do(ctx, http.MethodGet, urlPath, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "create document from reader")
	}
	return doc, nil
}

func (c *Client) getJSON(ctx context.Context, urlPath string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, urlPath, nil)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func (c *Client) postJSON(ctx context.Context, urlPath string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "marshal request", slog.String("path", urlPath))
	}
	resp, err := c.do(ctx, http.MethodPost, urlPath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	return decode(resp, out)
}

// do sends the request and turns non-2xx responses into *Error.
func (c *Client) do(ctx context.Context, method, urlPath string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url+urlPath, body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request", slog.String("method", method), slog.String("path", urlPath))
	}
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return resp, nil
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	apiErr := &Error{Status: resp.StatusCode, Code: "", Message: http.StatusText(resp.StatusCode), Details: "", TraceID: ""}
	var payload struct {
		Error   string `json:"error"`
		Code    string `json:"code"`
		Details string `json:"details"`
		TraceID string `json:"traceId"`
	}
	if json.NewDecoder(resp.Body).Decode(&payload) == nil && payload.Error != "" {
		apiErr.Message = payload.Error
		apiErr.Code = payload.Code
		apiErr.Details = payload.Details
		apiErr.TraceID = payload.TraceID
	}
	return nil, apiErr
}

func decode(resp *http.Response, out any) error {
	defer func() {
		_ = resp.Body.Close()
	}()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}
