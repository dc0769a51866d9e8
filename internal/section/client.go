// Package section drives the plan page's dynamic sub-views: loading
// fragments into the persistent content region, delegating events, the
// expense form with its live split, reimbursement shortcuts and the
// statistics dataset. Everything here is DOM-free; rendering happens
// through callbacks and the fragments are plain HTML strings.
package section

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ExpensePayload is the parallel participants/amounts shape submitted to
// the expense endpoints.
type ExpensePayload struct {
	Name         string
	Amount       string
	Payer        string
	Date         string
	Participants []string
	Amounts      []string
}

// API is the server contract the controllers speak. *Client implements it.
type API interface {
	SectionFragment(ctx context.Context, hashID, name string) (string, error)
	ExpenseDetail(ctx context.Context, hashID string, expenseID int64) (string, error)
	CreateExpense(ctx context.Context, hashID string, payload ExpensePayload) error
	UpdateExpense(ctx context.Context, hashID string, expenseID int64, payload ExpensePayload) error
	DeleteExpense(ctx context.Context, hashID string, expenseID int64) error
}

// Client is a typed HTTP client for the plan/section endpoints. Any
// non-2xx status is a transport error, even when the server attached an
// error fragment body.
type Client struct {
	baseURL string
	httpc   *http.Client
}

func NewClient(baseURL string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpc: httpc}
}

func (c *Client) SectionFragment(ctx context.Context, hashID, name string) (string, error) {
	return c.getFragment(ctx, fmt.Sprintf("%s/plans/%s/section/%s", c.baseURL, hashID, name))
}

func (c *Client) ExpenseDetail(ctx context.Context, hashID string, expenseID int64) (string, error) {
	return c.getFragment(ctx, fmt.Sprintf("%s/plans/%s/section/expenses/%d", c.baseURL, hashID, expenseID))
}

func (c *Client) CreateExpense(ctx context.Context, hashID string, payload ExpensePayload) error {
	endpoint := fmt.Sprintf("%s/plans/%s/section/expenses", c.baseURL, hashID)
	return c.sendForm(ctx, http.MethodPost, endpoint, payload)
}

func (c *Client) UpdateExpense(ctx context.Context, hashID string, expenseID int64, payload ExpensePayload) error {
	endpoint := fmt.Sprintf("%s/plans/%s/section/expenses/%d", c.baseURL, hashID, expenseID)
	return c.sendForm(ctx, http.MethodPut, endpoint, payload)
}

func (c *Client) DeleteExpense(ctx context.Context, hashID string, expenseID int64) error {
	endpoint := fmt.Sprintf("%s/plans/%s/section/expenses/%d", c.baseURL, hashID, expenseID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.checkStatus(req)
}

func (c *Client) getFragment(ctx context.Context, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch fragment: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read fragment: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fragment request failed: status %d", resp.StatusCode)
	}
	return string(body), nil
}

func (c *Client) sendForm(ctx context.Context, method, endpoint string, payload ExpensePayload) error {
	form := url.Values{}
	form.Set("name", payload.Name)
	form.Set("amount", payload.Amount)
	form.Set("payer", payload.Payer)
	if payload.Date != "" {
		form.Set("date", payload.Date)
	}
	for _, p := range payload.Participants {
		form.Add("participants", p)
	}
	for _, a := range payload.Amounts {
		form.Add("amounts", a)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.checkStatus(req)
}

func (c *Client) checkStatus(req *http.Request) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("request failed: status %d", resp.StatusCode)
	}
	return nil
}

func parseExpenseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid expense id %q", s)
	}
	return id, nil
}
