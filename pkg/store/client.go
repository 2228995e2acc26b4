package store

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

	"github.com/pagenote-project/pagenote/pkg/annotation"
	yaHttp "github.com/pagenote-project/pagenote/pkg/http"
)

// TokenSource returns the bearer token of the signed-in actor, or an empty
// string for anonymous requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// Client is the HTTP implementation of Persistence against the annotation API.
// Requests are never retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

func NewClient(baseURL string, httpClient *http.Client, tokens TokenSource) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if tokens == nil {
		tokens = StaticToken("")
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
	}
}

type annotationsResponse struct {
	Annotations []annotation.Annotation `json:"annotations"`
}

type annotationResponse struct {
	Annotation annotation.Annotation `json:"annotation"`
}

func (c *Client) List(ctx context.Context, documentID string) ([]annotation.Annotation, error) {
	var response annotationsResponse
	path := "/api/annotations?documentId=" + url.QueryEscape(documentID)
	if err := c.do(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}
	if response.Annotations == nil {
		return []annotation.Annotation{}, nil
	}
	return response.Annotations, nil
}

func (c *Client) Create(ctx context.Context, request annotation.CreateRequest) (annotation.Annotation, error) {
	var response annotationResponse
	if err := c.do(ctx, http.MethodPost, "/api/annotations", request, &response); err != nil {
		return annotation.Annotation{}, err
	}
	return response.Annotation, nil
}

func (c *Client) Update(ctx context.Context, id string, request annotation.UpdateRequest) (annotation.Annotation, error) {
	var response annotationResponse
	if err := c.do(ctx, http.MethodPatch, "/api/annotations/"+url.PathEscape(id), request, &response); err != nil {
		return annotation.Annotation{}, err
	}
	return response.Annotation, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/annotations/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method string, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &annotation.FetchError{Err: err}
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return &annotation.AuthorizationError{Status: http.StatusUnauthorized, Message: err.Error()}
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return &annotation.FetchError{Err: err}
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return errorFromResponse(response)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return &annotation.FetchError{Status: response.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func errorFromResponse(response *http.Response) error {
	var body yaHttp.ErrorBody
	if err := json.NewDecoder(response.Body).Decode(&body); err != nil || body.Error == "" {
		body.Error = http.StatusText(response.StatusCode)
	}

	switch response.StatusCode {
	case http.StatusBadRequest:
		return &annotation.ValidationError{Message: body.Error, Details: body.Details}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &annotation.AuthorizationError{Status: response.StatusCode, Message: body.Error}
	case http.StatusNotFound:
		return &annotation.NotFoundError{Message: body.Error}
	default:
		return &annotation.FetchError{Status: response.StatusCode, Err: errors.New(body.Error)}
	}
}
