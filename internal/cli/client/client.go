package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/authdeck/authdeck/internal/session"
)

// ErrUnauthorized is returned when the API still rejects the caller after
// the transport's refresh attempt.
var ErrUnauthorized = errors.New("not authorized")

// Client represents an HTTP client for the protected authdeck API.
// Bearer tokens are attached by the HTTP client's transport.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// UpdateProfileRequest represents the profile update body
type UpdateProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// GrowthPoint is the number of sign-ups on one day
type GrowthPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// AnalyticsSummary is the analytics dashboard data
type AnalyticsSummary struct {
	TotalUsers     int64         `json:"totalUsers"`
	ActiveUsers    int64         `json:"activeUsers"`
	NewUsers       int64         `json:"newUsers"`
	ConversionRate float64       `json:"conversionRate"`
	UserGrowth     []GrowthPoint `json:"userGrowth"`
	CapturedAt     time.Time     `json:"capturedAt"`
}

// ReportRow is one labelled figure in a report
type ReportRow struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ReportContent is the body of a generated report
type ReportContent struct {
	Title string      `json:"title"`
	Rows  []ReportRow `json:"rows"`
}

// Report represents a generated or pending report
type Report struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Status      string         `json:"status"` // pending, ready, failed
	Content     *ReportContent `json:"content,omitempty"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

type userEnvelope struct {
	User session.User `json:"user"`
}

// Me returns the signed-in user
func (c *Client) Me(ctx context.Context) (*session.User, error) {
	var out userEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, http.StatusOK, &out); err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &out.User, nil
}

// UpdateProfile changes the signed-in user's name and email
func (c *Client) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*session.User, error) {
	var out userEnvelope
	if err := c.do(ctx, http.MethodPatch, "/api/users/me", req, http.StatusOK, &out); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &out.User, nil
}

// Analytics returns the latest analytics summary
func (c *Client) Analytics(ctx context.Context) (*AnalyticsSummary, error) {
	var out AnalyticsSummary
	if err := c.do(ctx, http.MethodGet, "/api/analytics/summary", nil, http.StatusOK, &out); err != nil {
		return nil, fmt.Errorf("failed to load analytics: %w", err)
	}
	return &out, nil
}

// ListReports returns the caller's reports, newest first
func (c *Client) ListReports(ctx context.Context) ([]Report, error) {
	var out []Report
	if err := c.do(ctx, http.MethodGet, "/api/reports", nil, http.StatusOK, &out); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return out, nil
}

// GenerateReport queues a report of the given type
func (c *Client) GenerateReport(ctx context.Context, reportType string) (*Report, error) {
	var out Report
	body := map[string]string{"type": reportType}
	if err := c.do(ctx, http.MethodPost, "/api/reports", body, http.StatusAccepted, &out); err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}
	return &out, nil
}

// GetReport returns one report by ID
func (c *Client) GetReport(ctx context.Context, id string) (*Report, error) {
	var out Report
	if err := c.do(ctx, http.MethodGet, "/api/reports/"+url.PathEscape(id), nil, http.StatusOK, &out); err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode != want {
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, errorMessage(resp.Body))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func errorMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 64<<10))
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(raw))
}
