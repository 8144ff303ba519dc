// Package client talks to the projectdesk API on behalf of the admin
// dashboard and keeps the local session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnauthorized is returned for any 401 from the server.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-success response. Message is the server's message
// field when it sent one.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	Token() string
}

type API struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

func NewAPI(baseURL string, tokens TokenSource) *API {
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		tokens:  tokens,
	}
}

// WithHTTPClient swaps the transport, mostly for tests.
func (a *API) WithHTTPClient(c *http.Client) *API {
	a.http = c
	return a
}

// BaseURL is the server root the client was built with.
func (a *API) BaseURL() string {
	return a.baseURL
}

type envelope[T any] struct {
	Data T `json:"data"`
}

func (a *API) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var resp RegisterResponse
	if err := a.doJSON(ctx, http.MethodPost, "/auth/register", req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *API) GetUser(ctx context.Context, id string) (*User, error) {
	var env envelope[User]
	if err := a.doJSON(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, &env, true); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (a *API) ListUsers(ctx context.Context) ([]User, error) {
	var env envelope[[]User]
	if err := a.doJSON(ctx, http.MethodGet, "/users", nil, &env, true); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (a *API) ListProjects(ctx context.Context) ([]Project, error) {
	var env envelope[[]Project]
	if err := a.doJSON(ctx, http.MethodGet, "/projects", nil, &env, true); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// AssignProject assigns projectID to userID, or unassigns it when userID
// is empty.
func (a *API) AssignProject(ctx context.Context, projectID, userID string) error {
	body := map[string]*string{"userId": nil}
	if userID != "" {
		body["userId"] = &userID
	}
	return a.doJSON(ctx, http.MethodPatch, "/projects/"+url.PathEscape(projectID)+"/assign", body, nil, true)
}

func (a *API) DeleteProject(ctx context.Context, projectID string) error {
	return a.doJSON(ctx, http.MethodDelete, "/projects/"+url.PathEscape(projectID), nil, nil, true)
}

func (a *API) UpdateUser(ctx context.Context, id string, update ProfileUpdate) (*User, error) {
	var env envelope[User]
	if err := a.doJSON(ctx, http.MethodPatch, "/users/"+url.PathEscape(id), update, &env, true); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// UploadProfileImage posts the image as multipart field "image" and returns
// the stored image location.
func (a *API) UploadProfileImage(ctx context.Context, id, filename string, image io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, image); err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := a.newRequest(ctx, http.MethodPost, "/users/"+url.PathEscape(id)+"/profile-image", &buf, true)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var env envelope[struct {
		ProfileImage string `json:"profileImage"`
	}]
	if err := a.do(req, &env); err != nil {
		return "", err
	}
	return env.Data.ProfileImage, nil
}

func (a *API) newRequest(ctx context.Context, method, path string, body io.Reader, authed bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if authed && a.tokens != nil {
		if tok := a.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	return req, nil
}

func (a *API) doJSON(ctx context.Context, method, path string, in, out any, authed bool) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := a.newRequest(ctx, method, path, body, authed)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return a.do(req, out)
}

func (a *API) do(req *http.Request, out any) error {
	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Message any               `json:"message"`
		Fields  map[string]string `json:"fields"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &body) == nil {
		apiErr.Fields = body.Fields
		switch m := body.Message.(type) {
		case string:
			apiErr.Message = m
		case []any:
			// class-validator style servers send a list
			parts := make([]string, 0, len(m))
			for _, p := range m {
				parts = append(parts, fmt.Sprint(p))
			}
			apiErr.Message = strings.Join(parts, "; ")
		}
	}
	return apiErr
}
