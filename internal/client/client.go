// Package client talks to a running attendance API over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/auth"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/export"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx reply decoded from the response envelope.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error [%d] %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges an API key for an access token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, apiKey, subject string) (auth.TokenResponse, error) {
	var tok auth.TokenResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/token", nil, auth.TokenRequest{APIKey: apiKey, Subject: subject}, &tok)
	if err != nil {
		return auth.TokenResponse{}, err
	}
	c.token = tok.AccessToken
	return tok, nil
}

func (c *Client) CheckIn(ctx context.Context, req attendance.CheckInRequest) (attendance.AttendanceResponse, error) {
	var out attendance.AttendanceResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/attendance/check-in", nil, req, &out)
	return out, err
}

func (c *Client) CheckOut(ctx context.Context, req attendance.CheckOutRequest) (attendance.AttendanceResponse, error) {
	var out attendance.AttendanceResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/attendance/check-out", nil, req, &out)
	return out, err
}

func (c *Client) Status(ctx context.Context, employeeID string) (attendance.AttendanceStatusResponse, error) {
	var out attendance.AttendanceStatusResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/attendance/status/"+url.PathEscape(employeeID), nil, nil, &out)
	return out, err
}

func (c *Client) Dashboard(ctx context.Context) (report.Dashboard, error) {
	var out report.Dashboard
	err := c.do(ctx, http.MethodGet, "/api/v1/reports/dashboard", nil, nil, &out)
	return out, err
}

func (c *Client) AttendanceSummary(ctx context.Context, p report.Params) (report.AttendanceSummary, error) {
	var out report.AttendanceSummary
	err := c.do(ctx, http.MethodGet, "/api/v1/reports/attendance-summary", paramsQuery(p), nil, &out)
	return out, err
}

// Export downloads a rendered report into w and returns the server's file name.
func (c *Client) Export(ctx context.Context, reportType string, format export.Format, p report.Params, w io.Writer) (string, error) {
	query := paramsQuery(p)
	query.Set("format", string(format))

	resp, err := c.send(ctx, http.MethodGet, "/api/v1/reports/"+url.PathEscape(reportType)+"/export", query, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", decodeError(resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("read export body: %w", err)
	}

	filename := ""
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		filename = params["filename"]
	}
	return filename, nil
}

func paramsQuery(p report.Params) url.Values {
	q := url.Values{}
	for key, value := range map[string]string{
		"date_from":   p.DateFrom,
		"date_to":     p.DateTo,
		"department":  p.Department,
		"employee_id": p.EmployeeID,
	} {
		if value != "" {
			q.Set(key, value)
		}
	}
	return q
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// do sends a JSON request and decodes the envelope's data field into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	resp, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Code: http.StatusText(resp.StatusCode)}

	var body response.Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err == nil && body.Error != nil {
		apiErr.Code = body.Error.Code
		apiErr.Message = body.Error.Message
		apiErr.Details = body.Error.Details
	}
	return apiErr
}
