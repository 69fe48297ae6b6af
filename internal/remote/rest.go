package remote

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"academy/internal/progress"
)

const progressPath = "/rest/v1/user_progress"

// TokenSource returns the bearer token for the signed-in user, or "".
type TokenSource func() string

type RESTOptions struct {
	BaseURL   string
	APIKey    string
	Token     TokenSource
	RequestID string
	Timeout   time.Duration
}

// REST reads and writes user_progress through a PostgREST endpoint.
type REST struct {
	client *resty.Client
	apiKey string
	token  TokenSource
	now    func() time.Time
}

type progressRow struct {
	UserID           string    `json:"user_id,omitempty"`
	CompletedLessons []string  `json:"completed_lessons"`
	EarnedBadges     []string  `json:"earned_badges"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func NewREST(opts RESTOptions) *REST {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if opts.APIKey != "" {
		c.SetHeader("apikey", opts.APIKey)
	}
	if opts.RequestID != "" {
		c.SetHeader("X-Request-Id", opts.RequestID)
	}
	return &REST{client: c, apiKey: opts.APIKey, token: opts.Token, now: time.Now}
}

func (r *REST) request(ctx context.Context) *resty.Request {
	req := r.client.R().SetContext(ctx)
	token := ""
	if r.token != nil {
		token = r.token()
	}
	if token == "" {
		token = r.apiKey
	}
	if token != "" {
		req.SetAuthToken(token)
	}
	return req
}

func (r *REST) Fetch(ctx context.Context, userID string) (progress.Record, error) {
	var rows []progressRow
	resp, err := r.request(ctx).
		SetQueryParam("user_id", "eq."+userID).
		SetQueryParam("select", "completed_lessons,earned_badges").
		SetResult(&rows).
		Get(progressPath)
	if err != nil {
		return progress.Record{}, fmt.Errorf("fetch progress: %w", err)
	}
	if resp.IsError() {
		return progress.Record{}, fmt.Errorf("fetch progress: status %d", resp.StatusCode())
	}
	if len(rows) == 0 {
		return progress.Record{}, progress.ErrRemoteNotFound
	}
	return normalize(progress.Record{
		CompletedLessons: rows[0].CompletedLessons,
		EarnedBadges:     rows[0].EarnedBadges,
	}), nil
}

func (r *REST) Upsert(ctx context.Context, userID string, rec progress.Record) error {
	rec = normalize(rec)
	row := progressRow{
		UserID:           userID,
		CompletedLessons: rec.CompletedLessons,
		EarnedBadges:     rec.EarnedBadges,
		UpdatedAt:        r.now().UTC(),
	}
	resp, err := r.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "resolution=merge-duplicates,return=minimal").
		SetQueryParam("on_conflict", "user_id").
		SetBody([]progressRow{row}).
		Post(progressPath)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("upsert progress: status %d", resp.StatusCode())
	}
	return nil
}

func (r *REST) Delete(ctx context.Context, userID string) error {
	resp, err := r.request(ctx).
		SetQueryParam("user_id", "eq."+userID).
		Delete(progressPath)
	if err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	if resp.IsError() && resp.StatusCode() != http.StatusNotFound {
		return fmt.Errorf("delete progress: status %d", resp.StatusCode())
	}
	return nil
}
