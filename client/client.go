package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/2opremio/sqnz/config"
	"github.com/2opremio/sqnz/proto"
)

type Client struct {
	c          Config
	grpcConn   *grpc.ClientConn
	grpcClient proto.SequencesClient
}

type Config struct {
	Endpoint                 string
	Approach                 config.Approach
	HTTPClient               *http.Client
	FastHTTPClient           *fasthttp.Client
	DisableFastHTTPKeepAlive bool
}

func New(c Config) (*Client, error) {
	result := &Client{
		c: c,
	}
	if c.Approach == config.GRPCApproach {
		dialOption := grpc.WithTransportCredentials(insecure.NewCredentials())
		conn, err := grpc.NewClient(c.Endpoint, dialOption)
		if err != nil {
			return nil, err
		}
		result.grpcConn = conn
		result.grpcClient = proto.NewSequencesClient(conn)
	}
	return result, nil
}

func (c *Client) Close() error {
	if c.grpcConn == nil {
		return nil
	}
	return c.grpcConn.Close()
}

// Peek returns the current value of the counter without changing it.
func (c *Client) Peek(ctx context.Context, project, tag string) (uint64, error) {
	switch c.c.Approach {
	case config.HTTPApproach:
		return c.doHTTP(ctx, http.MethodGet, project, tag)
	case config.FastHTTPApproach:
		return c.doFastHTTP(ctx, fasthttp.MethodGet, project, tag)
	case config.GRPCApproach:
		reply, err := c.grpcClient.Peek(ctx, proto.NewCounterRequest(project, tag))
		if err != nil {
			return 0, fmt.Errorf("failed to send request: %w", err)
		}
		return reply.GetValue(), nil
	default:
		return 0, fmt.Errorf("unsupported approach: %d", c.c.Approach)
	}
}

// Consume returns the current value of the counter and increments it.
func (c *Client) Consume(ctx context.Context, project, tag string) (uint64, error) {
	switch c.c.Approach {
	case config.HTTPApproach:
		return c.doHTTP(ctx, http.MethodPost, project, tag)
	case config.FastHTTPApproach:
		return c.doFastHTTP(ctx, fasthttp.MethodPost, project, tag)
	case config.GRPCApproach:
		reply, err := c.grpcClient.Consume(ctx, proto.NewCounterRequest(project, tag))
		if err != nil {
			return 0, fmt.Errorf("failed to send request: %w", err)
		}
		return reply.GetValue(), nil
	default:
		return 0, fmt.Errorf("unsupported approach: %d", c.c.Approach)
	}
}

func (c *Client) counterURL(project, tag string) string {
	return strings.TrimSuffix(c.c.Endpoint, "/") + "/" + url.PathEscape(project) + "/" + url.PathEscape(tag)
}

func (c *Client) doHTTP(ctx context.Context, method, project, tag string) (uint64, error) {
	r, err := http.NewRequestWithContext(ctx, method, c.counterURL(project, tag), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	httpC := http.DefaultClient
	if c.c.HTTPClient != nil {
		httpC = c.c.HTTPClient
	}
	resp, err := httpC.Do(r)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response body: %w", err)
	}
	return parseReply(resp.StatusCode, b)
}

func (c *Client) doFastHTTP(_ context.Context, method, project, tag string) (uint64, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(c.counterURL(project, tag))
	req.Header.SetMethod(method)
	if c.c.DisableFastHTTPKeepAlive {
		req.Header.Set("Connection", "close")
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)
	// Escaped separators inside a segment must reach the server as they are.
	client := &fasthttp.Client{DisablePathNormalizing: true}
	if c.c.FastHTTPClient != nil {
		client = c.c.FastHTTPClient
	}
	if err := client.Do(req, resp); err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	return parseReply(resp.StatusCode(), resp.Body())
}

func parseReply(code int, body []byte) (uint64, error) {
	if code != http.StatusOK {
		return 0, fmt.Errorf("unexpected status code: %d: %s", code, strings.TrimSpace(string(body)))
	}
	ret, err := strconv.ParseUint(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse response body: %w", err)
	}
	return ret, nil
}
