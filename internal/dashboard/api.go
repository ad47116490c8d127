package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/followup/backend/internal/transport/http/dto"
	"github.com/gofiber/fiber/v2"
)

var ErrTaskNotFound = errors.New("dashboard: task not found")

// TaskAPI is the slice of the backend the dashboard talks to.
type TaskAPI interface {
	TodayTasks(ctx context.Context) ([]dto.TaskResponse, error)
	CompleteTask(ctx context.Context, id string) error
}

type HTTPAPIConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type httpAPI struct {
	baseURL string
	apiKey  string
	timeout time.Duration
}

func NewHTTPAPI(cfg HTTPAPIConfig) TaskAPI {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpAPI{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		timeout: timeout,
	}
}

func (a *httpAPI) prepare(ctx context.Context, agent *fiber.Agent) *fiber.Agent {
	timeout := a.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	agent.Timeout(timeout)
	if a.apiKey != "" {
		agent.Set("apikey", a.apiKey)
	}
	return agent
}

func (a *httpAPI) TodayTasks(ctx context.Context) ([]dto.TaskResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	code, body, errs := a.prepare(ctx, fiber.Get(a.baseURL+"/api/v1/tasks/today")).Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("dashboard: list today: %w", errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return nil, statusError("list today", code, body)
	}

	var tasks []dto.TaskResponse
	if err := json.Unmarshal(body, &tasks); err != nil {
		return nil, fmt.Errorf("dashboard: decode tasks: %w", err)
	}
	return tasks, nil
}

func (a *httpAPI) CompleteTask(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	endpoint := a.baseURL + "/api/v1/tasks/" + url.PathEscape(id) + "/complete"
	code, body, errs := a.prepare(ctx, fiber.Patch(endpoint)).Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("dashboard: complete %s: %w", id, errors.Join(errs...))
	}
	switch code {
	case fiber.StatusOK:
		return nil
	case fiber.StatusNotFound:
		return ErrTaskNotFound
	default:
		return statusError("complete "+id, code, body)
	}
}

func statusError(op string, code int, body []byte) error {
	var resp dto.ErrorResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != "" {
		return fmt.Errorf("dashboard: %s: status %d: %s", op, code, resp.Error)
	}
	return fmt.Errorf("dashboard: %s: status %d", op, code)
}
