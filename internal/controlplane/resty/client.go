// Package resty is an illustrative HTTP implementation of the
// ControlPlane collaborator contract. The remote-API transport is
// out of the core's scope; this package exists only so the rest of the
// repo has a concrete collaborator to drive end to end, grounded on the
// teacher's cli/api_client.go resty wiring.
package resty

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/n8nctl/n8nctl/internal/controlplane"
	"github.com/n8nctl/n8nctl/internal/workflow"
)

// Client implements controlplane.ControlPlane over the control plane's
// REST API.
type Client struct {
	http    *resty.Client
	limiter *rateLimiter
}

// Config configures a Client. RequestsPerSecond/Burst are optional; a
// zero RequestsPerSecond disables client-side throttling entirely.
type Config struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// New validates cfg and builds a Client.
func New(cfg Config) (*Client, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil || !parsed.IsAbs() {
		return nil, fmt.Errorf("controlplane: invalid base URL %q", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("X-N8N-API-KEY", cfg.APIKey)
	return &Client{http: http, limiter: newRateLimiter(cfg.RequestsPerSecond, cfg.Burst)}, nil
}

type apiError struct {
	Message string `json:"message"`
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx).SetError(&apiError{})
}

// requestCtx blocks until the client-side rate limiter admits another
// request, or ctx is canceled. Every method below calls this before
// request() so bulk workflow commands don't
// overrun whatever throughput the control plane can sustain.
func (c *Client) requestCtx(ctx context.Context) (*resty.Request, error) {
	if err := c.limiter.wait(ctx); err != nil {
		return nil, &controlplane.Error{Class: controlplane.ErrClassConnection, Code: "CONNECTION_ERROR", Message: "rate limit wait", Cause: err}
	}
	return c.request(ctx), nil
}

// classify converts a resty response/error pair into a *controlplane.Error,
// or nil if the call succeeded.
func classify(resp *resty.Response, err error, opCode string) error {
	if err != nil {
		return &controlplane.Error{Class: controlplane.ErrClassConnection, Code: "CONNECTION_ERROR", Message: opCode, Cause: err}
	}
	if resp == nil {
		return &controlplane.Error{Class: controlplane.ErrClassNoResponse, Code: "NO_RESPONSE", Message: opCode}
	}
	status := resp.StatusCode()
	if status >= 200 && status < 300 {
		return nil
	}
	class := controlplane.ClassifyStatus(status)
	msg := opCode
	if apiErr, ok := resp.Error().(*apiError); ok && apiErr != nil && apiErr.Message != "" {
		msg = apiErr.Message
	}
	return &controlplane.Error{Class: class, Code: classCode(class), Message: msg, StatusCode: status}
}

func classCode(class controlplane.ErrorClass) string {
	switch class {
	case controlplane.ErrClassAuth:
		return "AUTH_ERROR"
	case controlplane.ErrClassRateLimit:
		return "RATE_LIMIT_ERROR"
	case controlplane.ErrClassValidation:
		return "VALIDATION_REJECTED"
	case controlplane.ErrClassNoResponse:
		return "NO_RESPONSE"
	default:
		return "CONNECTION_ERROR"
	}
}

func (c *Client) GetWorkflow(ctx context.Context, id string) (*workflow.Workflow, error) {
	req, err := c.requestCtx(ctx)
	if err != nil {
		return nil, err
	}
	var wf workflow.Workflow
	resp, httpErr := req.SetResult(&wf).Get("/workflows/" + url.PathEscape(id))
	if cpErr := classify(resp, httpErr, "get workflow"); cpErr != nil {
		return nil, cpErr
	}
	return &wf, nil
}

type listResponse struct {
	Data       []*workflow.Workflow `json:"data"`
	NextCursor string               `json:"nextCursor"`
}

func (c *Client) ListWorkflows(ctx context.Context, filter controlplane.ListFilter) (controlplane.ListResult, error) {
	req, err := c.requestCtx(ctx)
	if err != nil {
		return controlplane.ListResult{}, err
	}
	if filter.Active != nil {
		req.SetQueryParam("active", fmt.Sprintf("%t", *filter.Active))
	}
	if filter.Limit > 0 {
		req.SetQueryParam("limit", fmt.Sprintf("%d", filter.Limit))
	}
	if filter.Cursor != "" {
		req.SetQueryParam("cursor", filter.Cursor)
	}
	var out listResponse
	resp, err := req.SetResult(&out).Get("/workflows")
	if cpErr := classify(resp, err, "list workflows"); cpErr != nil {
		return controlplane.ListResult{}, cpErr
	}
	return controlplane.ListResult{Workflows: out.Data, NextCursor: out.NextCursor}, nil
}

func (c *Client) CreateWorkflow(ctx context.Context, wf *workflow.Workflow) (*workflow.Workflow, error) {
	req, err := c.requestCtx(ctx)
	if err != nil {
		return nil, err
	}
	var created workflow.Workflow
	resp, httpErr := req.SetBody(wf).SetResult(&created).Post("/workflows")
	if cpErr := classify(resp, httpErr, "create workflow"); cpErr != nil {
		return nil, cpErr
	}
	return &created, nil
}

func (c *Client) UpdateWorkflow(ctx context.Context, id string, wf *workflow.Workflow) (*workflow.Workflow, error) {
	req, err := c.requestCtx(ctx)
	if err != nil {
		return nil, err
	}
	var updated workflow.Workflow
	resp, httpErr := req.SetBody(wf).SetResult(&updated).Put("/workflows/" + url.PathEscape(id))
	if cpErr := classify(resp, httpErr, "update workflow"); cpErr != nil {
		return nil, cpErr
	}
	return &updated, nil
}

func (c *Client) DeleteWorkflow(ctx context.Context, id string) error {
	req, err := c.requestCtx(ctx)
	if err != nil {
		return err
	}
	resp, httpErr := req.Delete("/workflows/" + url.PathEscape(id))
	return classify(resp, httpErr, "delete workflow")
}

func (c *Client) Activate(ctx context.Context, id string) error {
	req, err := c.requestCtx(ctx)
	if err != nil {
		return err
	}
	resp, httpErr := req.Post("/workflows/" + url.PathEscape(id) + "/activate")
	return classify(resp, httpErr, "activate workflow")
}

func (c *Client) Deactivate(ctx context.Context, id string) error {
	req, err := c.requestCtx(ctx)
	if err != nil {
		return err
	}
	resp, httpErr := req.Post("/workflows/" + url.PathEscape(id) + "/deactivate")
	return classify(resp, httpErr, "deactivate workflow")
}

type executionsResponse struct {
	Data []controlplane.Execution `json:"data"`
}

func (c *Client) GetExecutions(ctx context.Context, workflowID string, limit int) ([]controlplane.Execution, error) {
	req, err := c.requestCtx(ctx)
	if err != nil {
		return nil, err
	}
	req.SetQueryParam("workflowId", workflowID)
	if limit > 0 {
		req.SetQueryParam("limit", fmt.Sprintf("%d", limit))
	}
	var out executionsResponse
	resp, httpErr := req.SetResult(&out).Get("/executions")
	if cpErr := classify(resp, httpErr, "get executions"); cpErr != nil {
		return nil, cpErr
	}
	return out.Data, nil
}

var _ controlplane.ControlPlane = (*Client)(nil)
