// Package graphql talks to a remote GraphQL API on behalf of the node query
// generator: it introspects the schema, loads the hierarchical post types and
// executes the generated documents.
package graphql

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// RequestModifier tweaks an outgoing HTTP request, typically to add
// authentication headers.
type RequestModifier func(*http.Request)

// Client is a GraphQL client.
//
// The With* methods return a new Client and leave the receiver untouched,
// so a configured Client is safe to share:
//
//	client = client.WithDebug(true).WithRateLimit(5, 1)
type Client struct {
	url             string // GraphQL server URL.
	httpClient      *http.Client
	requestModifier RequestModifier
	limiter         *rate.Limiter
	logger          *log.Logger
	debug           bool
}

// NewClient creates a GraphQL client targeting the specified GraphQL server URL.
// If httpClient is nil, then http.DefaultClient is used.
func NewClient(url string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		url:        url,
		httpClient: httpClient,
		logger:     log.New(io.Discard),
	}
}

// URL returns the endpoint the client sends requests to.
func (c *Client) URL() string {
	return c.url
}

// handleGzipResponse wraps the response body reader with a gzip decompressor
// if the Content-Encoding header indicates gzip compression.
func handleGzipResponse(
	resp *http.Response,
	bodyReader io.Reader,
) (io.ReadCloser, error) {
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gr, err := gzip.NewReader(bodyReader)
		if err != nil {
			return nil, fmt.Errorf("problem trying to create gzip reader: %w", err)
		}
		return gr, nil
	}
	return io.NopCloser(bodyReader), nil
}

func (c *Client) request(
	ctx context.Context,
	query string,
	variables map[string]any,
) ([]byte, *http.Response, io.Reader, Errors) {
	request, reqBody, err := c.BuildRequest(ctx, query, variables)
	if err != nil {
		e := c.NewRequestError(
			ErrRequestError,
			fmt.Errorf("problem constructing request: %w", err),
			request,
			nil,
			bytes.NewReader(reqBody),
			nil,
		)
		return nil, nil, nil, Errors{e}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, nil, newSimpleErrors(ErrRequestError, fmt.Errorf("rate limiter: %w", err))
		}
	}

	c.logger.Debug("sending request", "url", c.url, "bytes", len(reqBody))

	resp, err := c.httpClient.Do(request)
	if err != nil {
		e := c.NewRequestError(
			ErrRequestError,
			err,
			request,
			nil,
			bytes.NewReader(reqBody),
			nil,
		)
		return nil, nil, nil, Errors{e}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		err := c.NewRequestError(
			ErrRequestError,
			fmt.Errorf("%v; body: %q", resp.Status, body),
			request,
			nil,
			bytes.NewReader(reqBody),
			nil,
		)
		return nil, nil, nil, Errors{err}
	}

	r, err := handleGzipResponse(resp, resp.Body)
	if err != nil {
		return nil, nil, nil, newSimpleErrors(ErrJsonDecode, err)
	}
	defer func() { _ = r.Close() }()

	// In debug mode the body is kept around so errors can carry it.
	var respBody []byte
	var respReader *bytes.Reader
	if c.debug {
		respBody, err = io.ReadAll(r)
		if err != nil {
			return nil, nil, nil, newSimpleErrors(ErrJsonDecode, err)
		}
		respReader = bytes.NewReader(respBody)
		r = io.NopCloser(respReader)
	}

	rawData, gqlErrors := c.DecodeResponse(r)

	if respReader != nil {
		_, _ = respReader.Seek(0, io.SeekStart)
	}

	if len(gqlErrors) == 0 {
		return rawData, resp, respReader, nil
	}

	if gqlErrors[0].GetCode() == ErrJsonDecode {
		we := c.NewRequestError(
			ErrJsonDecode,
			fmt.Errorf("%s", gqlErrors[0].Message),
			request,
			resp,
			bytes.NewReader(reqBody),
			bytes.NewReader(respBody),
		)
		return nil, nil, nil, Errors{we}
	}

	if c.debug &&
		(gqlErrors[0].Extensions == nil || gqlErrors[0].Extensions["internal"] == nil) {
		gqlErrors[0] = c.DecorateError(
			gqlErrors[0],
			request,
			resp,
			bytes.NewReader(reqBody),
			bytes.NewReader(respBody),
		)
	}
	c.logger.Warn("server returned errors", "url", c.url, "count", len(gqlErrors))

	return rawData, resp, respReader, gqlErrors
}

// BuildRequest constructs an HTTP request with JSON body for a GraphQL operation.
// It returns the HTTP request and the request body bytes (useful for error decoration).
func (c *Client) BuildRequest(
	ctx context.Context,
	query string,
	variables map[string]any,
) (*http.Request, []byte, error) {
	// An empty variable map is sent the same way as no variables at all.
	if len(variables) == 0 {
		variables = nil
	}
	in := struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables,omitempty"`
	}{
		Query:     query,
		Variables: variables,
	}
	var buf bytes.Buffer
	err := json.NewEncoder(&buf).Encode(in)
	if err != nil {
		return nil, nil, err
	}

	reqBody := buf.Bytes()
	request, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.url,
		bytes.NewReader(reqBody),
	)
	if err != nil {
		return nil, reqBody, err
	}
	request.Header.Add("Content-Type", "application/json")

	if c.requestModifier != nil {
		c.requestModifier(request)
	}

	return request, reqBody, nil
}

// DecodeResponse decodes a GraphQL JSON response into raw data and errors.
// It returns the raw data bytes (if present) and any GraphQL errors.
func (c *Client) DecodeResponse(reader io.Reader) ([]byte, Errors) {
	var out struct {
		Data   *json.RawMessage
		Errors Errors
	}

	err := json.NewDecoder(reader).Decode(&out)
	if err != nil {
		return nil, newSimpleErrors(ErrJsonDecode, err)
	}

	var rawData []byte
	if out.Data != nil && len(*out.Data) > 0 {
		rawData = *out.Data
	}

	if len(out.Errors) > 0 {
		return rawData, out.Errors
	}

	return rawData, nil
}

// Exec executes a query document and unmarshals the "data" member of the
// response into v. Partial data is still decoded when the server also
// reports errors.
func (c *Client) Exec(
	ctx context.Context,
	query string,
	v any,
	variables map[string]any,
) error {
	data, resp, respBuf, errs := c.request(ctx, query, variables)
	return c.processResponse(v, data, resp, respBuf, errs)
}

// ExecRaw executes a query document and returns the raw "data" member.
func (c *Client) ExecRaw(
	ctx context.Context,
	query string,
	variables map[string]any,
) ([]byte, error) {
	data, _, _, errs := c.request(ctx, query, variables)
	if len(errs) > 0 {
		return data, errs
	}
	return data, nil
}

func (c *Client) processResponse(
	v any,
	data []byte,
	resp *http.Response,
	respBuf io.Reader,
	errs Errors,
) error {
	if len(data) > 0 && v != nil {
		if err := json.Unmarshal(data, v); err != nil {
			we := c.DecorateError(
				newError(ErrGraphQLDecode, err),
				nil,
				resp,
				nil,
				respBuf,
			)
			errs = append(errs, we)
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// clone creates a copy of the Client with all fields preserved.
func (c *Client) clone() *Client {
	return &Client{
		url:             c.url,
		httpClient:      c.httpClient,
		requestModifier: c.requestModifier,
		limiter:         c.limiter,
		logger:          c.logger,
		debug:           c.debug,
	}
}

// WithRequestModifier returns a new Client with the request modifier set.
func (c *Client) WithRequestModifier(f RequestModifier) *Client {
	clone := c.clone()
	clone.requestModifier = f
	return clone
}

// WithHeaders returns a new Client setting headers on every request, on top
// of any request modifier already configured.
func (c *Client) WithHeaders(headers map[string]string) *Client {
	if len(headers) == 0 {
		return c.clone()
	}
	prev := c.requestModifier
	return c.WithRequestModifier(func(r *http.Request) {
		if prev != nil {
			prev(r)
		}
		for k, v := range headers {
			r.Header.Set(k, v)
		}
	})
}

// WithDebug returns a new Client with debug mode enabled or disabled.
// When enabled, debug mode adds detailed request/response information to
// error extensions.
func (c *Client) WithDebug(debug bool) *Client {
	clone := c.clone()
	clone.debug = debug
	return clone
}

// WithRateLimit returns a new Client sending at most rps requests per second
// with bursts of burst requests. A non-positive rps removes the limit.
func (c *Client) WithRateLimit(rps float64, burst int) *Client {
	clone := c.clone()
	if rps <= 0 {
		clone.limiter = nil
		return clone
	}
	if burst < 1 {
		burst = 1
	}
	clone.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return clone
}

// WithLogger returns a new Client logging to logger. A nil logger discards
// everything.
func (c *Client) WithLogger(logger *log.Logger) *Client {
	clone := c.clone()
	if logger == nil {
		logger = log.New(io.Discard)
	}
	clone.logger = logger
	return clone
}

// DecorateError decorates an error with request/response information if debug
// mode is enabled.
func (c *Client) DecorateError(
	err Error,
	req *http.Request,
	resp *http.Response,
	reqBody,
	respBody io.Reader,
) Error {
	if !c.debug {
		return err
	}

	if req != nil && reqBody != nil {
		err = err.withRequest(req, reqBody)
	}

	if resp != nil && respBody != nil {
		err = err.withResponse(resp, respBody)
	}

	return err
}

// NewRequestError creates a new error with the given code and decorates it with
// request/response information if debug mode is enabled.
func (c *Client) NewRequestError(
	code string,
	err error,
	req *http.Request,
	resp *http.Response,
	reqBody,
	respBody io.Reader,
) Error {
	e := newError(code, err)
	return c.DecorateError(e, req, resp, reqBody, respBody)
}
