// Package backend is the client for the remote diagnostic service: session
// issuance, form retrieval, answer submission, generation, and session
// linking. Backend error codes are opaque strings; this package maps them to
// the tagged error taxonomy consumed by the rest of the core.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/shindanlab/shindan/internal/common/apperrors"
	"github.com/shindanlab/shindan/internal/common/httpclient"
)

// generationRequestTimeout bounds a single generation invocation. The
// gateway in front of the scoring service has its own timeout below this.
const generationRequestTimeout = 180 * time.Second

var retryableGatewayStatus = map[int]bool{
	http.StatusBadGateway:         true,
	http.StatusServiceUnavailable: true,
	http.StatusGatewayTimeout:     true,
}

// Client wraps the HTTP client with the diagnostic API surface.
type Client struct {
	http   *httpclient.HTTPClient
	logger zerolog.Logger
}

// NewClient creates a backend client over the given configuration.
func NewClient(config httpclient.Configurator, logger zerolog.Logger) *Client {
	return &Client{
		http:   httpclient.NewClient(config),
		logger: logger.With().Str("component", "backend").Logger(),
	}
}

// StartSession asks the backend to issue a session for the diagnostic code.
func (c *Client) StartSession(ctx context.Context, diagnosticCode string) (StartSessionResponse, apperrors.Error) {
	var out StartSessionResponse
	resp, err := c.http.DoRequest(ctx, httpclient.RequestOptions{
		Method: http.MethodPost,
		Path:   "/diagnostics/" + url.PathEscape(diagnosticCode) + "/sessions",
		Body:   []byte("{}"),
	})
	if err != nil {
		return out, c.mapError(ctx, err)
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return out, ErrUnknown.Msg("undecodable start session response").Err(err)
	}
	return out, nil
}

// FetchForm retrieves the form for a content version, honoring a previously
// seen ETag.
func (c *Client) FetchForm(ctx context.Context, versionID int64, etag string) (FormResult, apperrors.Error) {
	opts := httpclient.RequestOptions{
		Method: http.MethodGet,
		Path:   "/diagnostics/versions/" + url.PathEscape(strconv.FormatInt(versionID, 10)) + "/form",
	}
	if etag != "" {
		opts.Headers = map[string]string{"If-None-Match": etag}
	}
	resp, err := c.http.DoRequest(ctx, opts)
	if err != nil {
		return FormResult{}, c.mapError(ctx, err)
	}
	if resp.StatusCode == http.StatusNotModified {
		return FormResult{Status: FormNotModified, ETag: resp.Header.Get("ETag")}, nil
	}
	return FormResult{Status: FormOK, Data: resp.Body, ETag: resp.Header.Get("ETag")}, nil
}

// SubmitAnswers sends the finished answer set for a session.
func (c *Client) SubmitAnswers(ctx context.Context, sessionCode string, req SubmitAnswersRequest) apperrors.Error {
	body, err := json.Marshal(req)
	if err != nil {
		return ErrUnknown.Msg("unable to encode answers").Err(err)
	}
	_, doErr := c.http.DoRequest(ctx, httpclient.RequestOptions{
		Method: http.MethodPost,
		Path:   "/sessions/" + url.PathEscape(sessionCode) + "/answers",
		Body:   body,
	})
	if doErr != nil {
		return c.mapError(ctx, doErr)
	}
	return nil
}

// ExecuteGeneration runs (or re-runs) the scoring pass for a session.
func (c *Client) ExecuteGeneration(ctx context.Context, sessionCode string, opts GenerationOptions) (GenerationResponse, apperrors.Error) {
	var out GenerationResponse
	body, err := json.Marshal(opts)
	if err != nil {
		return out, ErrUnknown.Msg("unable to encode generation options").Err(err)
	}
	resp, doErr := c.http.DoRequest(ctx, httpclient.RequestOptions{
		Method:  http.MethodPost,
		Path:    "/sessions/" + url.PathEscape(sessionCode) + "/llm",
		Body:    body,
		Timeout: generationRequestTimeout,
	})
	if doErr != nil {
		return out, c.mapError(ctx, doErr)
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return out, ErrUnknown.Msg("undecodable generation response").Err(err)
	}
	return out, nil
}

// GetSession fetches a stored session by code.
func (c *Client) GetSession(ctx context.Context, sessionCode string) (SessionResponse, apperrors.Error) {
	var out SessionResponse
	resp, err := c.http.DoRequest(ctx, httpclient.RequestOptions{
		Method: http.MethodGet,
		Path:   "/sessions/" + url.PathEscape(sessionCode),
	})
	if err != nil {
		return out, c.mapError(ctx, err)
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return out, ErrUnknown.Msg("undecodable session response").Err(err)
	}
	return out, nil
}

// LinkSessions attaches the given session codes to the authenticated
// identity in one batched request.
func (c *Client) LinkSessions(ctx context.Context, sessionCodes []string) (LinkSessionsResponse, apperrors.Error) {
	var out LinkSessionsResponse
	body, err := json.Marshal(map[string][]string{"session_codes": sessionCodes})
	if err != nil {
		return out, ErrUnknown.Msg("unable to encode link request").Err(err)
	}
	resp, doErr := c.http.DoRequest(ctx, httpclient.RequestOptions{
		Method: http.MethodPost,
		Path:   "/auth/link-session",
		Body:   body,
	})
	if doErr != nil {
		return out, c.mapError(ctx, doErr)
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return out, ErrUnknown.Msg("undecodable link response").Err(err)
	}
	return out, nil
}

// mapError classifies a request failure. Gateway-class statuses and bare
// network failures become ErrTransient; recognized backend error codes map
// through the definitions table; everything else is ErrUnknown.
func (c *Client) mapError(ctx context.Context, err error) apperrors.Error {
	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) {
		if retryableGatewayStatus[httpErr.StatusCode] {
			return ErrTransient.Err(httpErr)
		}
		code := gjson.GetBytes(httpErr.Body, "error.code").String()
		if def, ok := Lookup(code); ok {
			return def.Err.Err(httpErr)
		}
		c.logger.Debug().Int("status", httpErr.StatusCode).Str("code", code).Msg("unmapped backend error")
		return ErrUnknown.Err(httpErr)
	}

	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return ErrCanceled.Err(err)
	}
	// request timeouts and network-layer failures are worth retrying
	return ErrTransient.Err(err)
}
