// Package backendsvc is the HTTP client of the grading backend REST API.
package backendsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/assignment"
)

// maxErrorBody caps how much of an error response is kept as payload.
const maxErrorBody = 1 << 20

type (
	// Client calls the backend. It is safe for concurrent use; the token is given per call.
	Client struct {
		baseURL    string
		httpClient *http.Client
		userAgent  string
	}

	// Option configures the client.
	Option func(*Client)
)

// New creates a Client for the backend served at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  "gradebook",
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewFromConfig creates a Client from the backend section of the config.
func NewFromConfig(conf *core.Config) *Client {
	return New(conf.Backend.BaseURL, WithTimeout(conf.Backend.Timeout), WithUserAgent(conf.AppName+"/"+conf.Build))
}

// WithTimeout sets the HTTP timeout. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying http.Client (eg. for tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	method      string
	path        string
	token       string
	body        io.Reader
	contentType string
}

func jsonRequest(method, path, token string, payload interface{}) (request, error) {
	req := request{method: method, path: path, token: token}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return req, errors.Wrap(err, "encoding payload")
		}
		req.body = bytes.NewReader(b)
		req.contentType = "application/json"
	}
	return req, nil
}

// do sends the request and decodes a 2xx JSON body into out (if not nil).
// Non-2xx responses become a *core.APIError holding the response body verbatim.
func (c *Client) do(ctx context.Context, r request, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", r.method, r.path)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := ioutil.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return core.NewAPIError(resp.StatusCode, bytes.TrimSpace(payload))
	}

	if out == nil {
		_, _ = io.Copy(ioutil.Discard, resp.Body)
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return errors.Wrapf(err, "decoding %s %s response", r.method, r.path)
	}
	return nil
}

type (
	loginRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	loginResponse struct {
		Token string `json:"token"`
	}
)

var errNoToken = errors.New("login response has no token")

// Login calls POST /login and returns the session token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	req, err := jsonRequest(http.MethodPost, "/login", "", loginRequest{Username: username, Password: password})
	if err != nil {
		return "", err
	}
	var out loginResponse
	if err = c.do(ctx, req, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", errNoToken
	}
	return out.Token, nil
}

// ListAssignments calls GET /assignments.
func (c *Client) ListAssignments(ctx context.Context, token string) ([]assignment.Assignment, error) {
	var out []assignment.Assignment
	err := c.do(ctx, request{method: http.MethodGet, path: "/assignments", token: token}, &out)
	return out, err
}

// GetAssignment calls GET /assignments/:id.
func (c *Client) GetAssignment(ctx context.Context, token string, id assignment.ID) (assignment.Assignment, error) {
	var out assignment.Assignment
	err := c.do(ctx, request{method: http.MethodGet, path: "/assignments/" + url.PathEscape(id.String()), token: token}, &out)
	return out, err
}

// ListSubmissions calls GET /assignments/:id/submissions.
func (c *Client) ListSubmissions(ctx context.Context, token string, assignmentID assignment.ID) ([]assignment.Submission, error) {
	var out []assignment.Submission
	path := "/assignments/" + url.PathEscape(assignmentID.String()) + "/submissions"
	err := c.do(ctx, request{method: http.MethodGet, path: path, token: token}, &out)
	return out, err
}

// GetSubmissionStatus calls GET /submissions/:assignmentId.
func (c *Client) GetSubmissionStatus(ctx context.Context, token string, assignmentID assignment.ID) (assignment.SubmissionStatus, error) {
	var out assignment.SubmissionStatus
	path := "/submissions/" + url.PathEscape(assignmentID.String())
	err := c.do(ctx, request{method: http.MethodGet, path: path, token: token}, &out)
	return out, err
}

// Submit calls POST /submissions with a multipart body made of `file`, `comment` and `assignmentId`.
// The file is streamed; it is not buffered in memory.
func (c *Client) Submit(ctx context.Context, token string, sub assignment.NewSubmission) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeSubmission(mw, sub)
		if err == nil {
			err = mw.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/submissions",
		token:       token,
		body:        pr,
		contentType: mw.FormDataContentType(),
	}, nil)
	_ = pr.Close()
	return err
}

func writeSubmission(mw *multipart.Writer, sub assignment.NewSubmission) error {
	part, err := mw.CreateFormFile("file", sub.FileName)
	if err != nil {
		return errors.Wrap(err, "creating file part")
	}
	if sub.File != nil {
		if _, err = io.Copy(part, sub.File); err != nil {
			return errors.Wrap(err, "copying file")
		}
	}
	if err = mw.WriteField("comment", sub.Comment); err != nil {
		return errors.Wrap(err, "writing comment")
	}
	if err = mw.WriteField("assignmentId", sub.AssignmentID.String()); err != nil {
		return errors.Wrap(err, "writing assignmentId")
	}
	return nil
}

// Grade calls POST /submissions/:id/grade.
func (c *Client) Grade(ctx context.Context, token string, in assignment.GradeInput) error {
	path := "/submissions/" + url.PathEscape(in.SubmissionID.String()) + "/grade"
	req, err := jsonRequest(http.MethodPost, path, token, in)
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}
