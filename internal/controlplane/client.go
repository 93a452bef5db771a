// Package controlplane talks to the game service that hands out upload
// credentials and records published builds.
package controlplane

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/imroc/req/v3"
	"github.com/raccreative/clawdrop/internal/fileindex"
	"github.com/raccreative/clawdrop/internal/syncerr"
	"github.com/raccreative/clawdrop/internal/target"
	"github.com/raccreative/clawdrop/internal/version"
)

const (
	HeaderAPIKey = "x-api-key"

	pathRequestUpload  = "/api/games/%d/request-differential-upload"
	pathVerifyUpload   = "/api/games/%d/verify-differential-upload"
	pathCompletePush   = "/api/games/%d/complete-push"
	pathDevelopedGames = "/api/games/developed"

	defaultTimeout = 60 * time.Second
)

// Client is the control plane API. Requests are never retried.
type Client struct {
	api *req.Client
	// presigned carries no api key, the urls are already signed
	presigned *req.Client
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.api.SetTimeout(d)
		c.presigned.SetTimeout(d)
	}
}

func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		api: newHTTPClient().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetCommonHeader(HeaderAPIKey, apiKey),
		presigned: newHTTPClient(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newHTTPClient() *req.Client {
	return req.C().
		SetTimeout(defaultTimeout).
		SetUserAgent(version.UserAgent()).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)
}

// RequestUpload asks for scoped credentials for one os of a game.
func (c *Client) RequestUpload(ctx context.Context, gameID uint64, params RequestUploadParams) (apiResp *RequestUploadResponse, err error) {
	const op = "request upload"
	resp, err := c.api.R().
		SetContext(ctx).
		SetBody(&params).
		SetSuccessResult(&apiResp).
		Post(fmt.Sprintf(pathRequestUpload, gameID))
	if err != nil {
		return nil, syncerr.Network(op, err)
	}

	switch resp.StatusCode {
	case http.StatusForbidden:
		return nil, syncerr.Wrap(syncerr.ErrUnauthorized, op, fmt.Errorf("not a developer of game %d", gameID))
	case http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", op, syncerr.ErrGameNotFound)
	case http.StatusBadRequest:
		return nil, fmt.Errorf("%s: %w", op, syncerr.ErrBuildSizeLimit)
	}
	if err := handleAPIError(resp, op); err != nil {
		return nil, err
	}
	if apiResp == nil {
		return nil, syncerr.Wrap(syncerr.ErrProtocolMismatch, op, fmt.Errorf("empty response body"))
	}
	return apiResp, nil
}

// FetchIndex downloads the published index. A missing object is an empty index.
func (c *Client) FetchIndex(ctx context.Context, url string) (*fileindex.FileIndex, error) {
	const op = "fetch remote fileindex"
	resp, err := c.presigned.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, syncerr.Network(op, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return &fileindex.FileIndex{}, nil
	}
	if err := handleAPIError(resp, op); err != nil {
		return nil, err
	}

	body, err := resp.ToBytes()
	if err != nil {
		return nil, syncerr.Network(op, err)
	}
	idx, err := fileindex.Decode(body)
	if err != nil {
		return nil, syncerr.Wrap(syncerr.ErrProtocolMismatch, op, err)
	}
	return idx, nil
}

// VerifyUpload asks the server to check the uploaded objects against the
// index sent with RequestUpload.
func (c *Client) VerifyUpload(ctx context.Context, gameID uint64, params VerifyUploadParams) error {
	const op = "verify upload"
	resp, err := c.api.R().
		SetContext(ctx).
		SetBody(&params).
		Put(fmt.Sprintf(pathVerifyUpload, gameID))
	if err != nil {
		return syncerr.Network(op, err)
	}

	if resp.StatusCode == http.StatusBadRequest {
		return fmt.Errorf("%s: %w", op, syncerr.ErrFileindexMismatch)
	}
	return handleAPIError(resp, op)
}

// CompletePush publishes the new version.
func (c *Client) CompletePush(ctx context.Context, gameID uint64, params CompletePushParams) error {
	const op = "complete push"
	resp, err := c.api.R().
		SetContext(ctx).
		SetBody(&params).
		Put(fmt.Sprintf(pathCompletePush, gameID))
	if err != nil {
		return syncerr.Network(op, err)
	}

	if resp.StatusCode == http.StatusForbidden {
		return syncerr.Wrap(syncerr.ErrUnauthorized, op, fmt.Errorf("not allowed to publish game %d", gameID))
	}
	return handleAPIError(resp, op)
}

// PutArtifact uploads a JSON document to a presigned url.
func (c *Client) PutArtifact(ctx context.Context, url string, body []byte) error {
	const op = "upload artifact"
	resp, err := c.presigned.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBodyBytes(body).
		Put(url)
	if err != nil {
		return syncerr.Network(op, err)
	}
	return handleAPIError(resp, op)
}

// DevelopedGames lists the games the api key holder develops.
func (c *Client) DevelopedGames(ctx context.Context) ([]target.Game, error) {
	const op = "list developed games"
	var apiResp developedGamesResponse
	resp, err := c.api.R().
		SetContext(ctx).
		SetSuccessResult(&apiResp).
		Get(pathDevelopedGames)
	if err != nil {
		return nil, syncerr.Network(op, err)
	}

	if resp.StatusCode == http.StatusForbidden {
		return nil, syncerr.Wrap(syncerr.ErrUnauthorized, op, fmt.Errorf("invalid api key"))
	}
	if err := handleAPIError(resp, op); err != nil {
		return nil, err
	}
	return apiResp.Games, nil
}

// handleAPIError turns any non-2xx response into a ServerError.
func handleAPIError(resp *req.Response, op string) error {
	if resp.IsSuccessState() {
		return nil
	}
	return &syncerr.ServerError{
		Op:   op,
		Code: resp.StatusCode,
		Body: strings.TrimSpace(resp.String()),
	}
}
