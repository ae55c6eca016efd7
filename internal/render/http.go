package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// HTTPOracle calls an external paginating renderer over HTTP.
type HTTPOracle struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPOracle(baseURL, apiKey string, timeout time.Duration) *HTTPOracle {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPOracle{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Render submits (content, stylesheet) to POST /render and decodes the
// paginated artifact.
func (o *HTTPOracle) Render(ctx context.Context, in Input) (*Artifact, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal render input: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, ErrRenderTimeout
		}
		return nil, &OracleError{Message: err.Error(), Transient: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &OracleError{
			Status:    resp.StatusCode,
			Message:   string(respBody),
			Transient: resp.StatusCode >= 500,
		}
	}

	var artifact Artifact
	if err := json.NewDecoder(resp.Body).Decode(&artifact); err != nil {
		return nil, &OracleError{Message: "decode artifact: " + err.Error()}
	}
	if len(artifact.Pages) == 0 {
		return nil, &OracleError{Message: "oracle returned an empty artifact"}
	}
	return &artifact, nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
