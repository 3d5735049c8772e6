// Package relay is an HTTP push-provider client. Devices register for an
// opaque token and then long-poll a newline-delimited JSON message stream;
// the relay's transport and token format are its own business.
package relay

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/Jeffail/gabs/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/prometheus/common/log"

	"github.com/owetally/tally/push"
)

type Config struct {
	BaseAddr             string        `env:"RELAY_BASE_ADDR" envDefault:"https://relay.owetally.dev"`
	DeviceID             string        `env:"RELAY_DEVICE_ID"`
	APIKey               string        `env:"RELAY_API_KEY" json:"-"`
	StreamReconnectWait  time.Duration `env:"RELAY_STREAM_RECONNECT_WAIT" envDefault:"1s"`
	HTTPMaxRetryCount    int           `env:"RELAY_HTTP_MAX_RETRY_COUNT" envDefault:"5"`
	HTTPMinRetryDuration time.Duration `env:"RELAY_HTTP_MIN_RETRY_DURATION" envDefault:"1s"`
	HTTPMaxRetryDuration time.Duration `env:"RELAY_HTTP_MAX_RETRY_DURATION" envDefault:"30s"`
}

type Client struct {
	cfg      Config
	baseAddr *url.URL
	client   *http.Client
	headers  map[string]string
}

func New(cfg Config) (*Client, error) {
	baseAddr, err := url.Parse(cfg.BaseAddr)
	if err != nil {
		return nil, fmt.Errorf("parse base addr: %w", err)
	}

	client := retryablehttp.NewClient()
	client.RetryWaitMax = cfg.HTTPMaxRetryDuration
	client.RetryWaitMin = cfg.HTTPMinRetryDuration
	client.RetryMax = cfg.HTTPMaxRetryCount
	client.Logger = nil
	client.RequestLogHook = func(logger retryablehttp.Logger, request *http.Request, i int) {
		if i != 0 {
			log.Errorf("Retrying request for %s (attempt %d)", request.URL.String(), i)
		}
	}

	headers := map[string]string{
		"Content-Type": "application/json;charset=utf-8",
	}
	if cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + cfg.APIKey
	}

	return &Client{
		cfg:      cfg,
		baseAddr: baseAddr,
		client:   client.StandardClient(),
		headers:  headers,
	}, nil
}

func (c *Client) endpoint(p string, query url.Values) string {
	u := *c.baseAddr
	u.Path = path.Join(u.Path, p)
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// Register asks the relay for a device token.
func (c *Client) Register(ctx context.Context) (string, error) {
	payload := gabs.New()
	if _, err := payload.Set(c.cfg.DeviceID, "device_id"); err != nil {
		return "", fmt.Errorf("build register payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/v1/devices", nil),
		bytes.NewReader(payload.Bytes()))
	if err != nil {
		return "", fmt.Errorf("new register request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("register device: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("register device: status code %d", resp.StatusCode)
	}

	output, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read register response: %w", err)
	}

	gc, err := gabs.ParseJSON(output)
	if err != nil {
		return "", fmt.Errorf("parse register response: %w", err)
	}

	token, ok := gc.Path("token").Data().(string)
	if !ok || token == "" {
		return "", fmt.Errorf("no token in register response")
	}
	return token, nil
}

// Subscribe consumes the relay's foreground message stream for a token
// until the returned unsubscribe function is called or ctx ends. Dropped
// connections are reconnected; messages sent while disconnected are lost,
// which is fine for an ephemeral channel.
func (c *Client) Subscribe(ctx context.Context, token string, handler func(push.Message)) (func(), error) {
	streamCtx, cancel := context.WithCancel(ctx)
	go c.consume(streamCtx, token, handler)
	return cancel, nil
}

func (c *Client) consume(ctx context.Context, token string, handler func(push.Message)) {
	for {
		if err := c.readStream(ctx, token, handler); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Errorf("Reading push message stream: %v", err)
		}

		select {
		case <-time.After(c.cfg.StreamReconnectWait):
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) readStream(ctx context.Context, token string, handler func(push.Message)) error {
	query := url.Values{}
	query.Set("token", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/v1/messages", query), nil)
	if err != nil {
		return fmt.Errorf("new stream request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("get message stream: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("message stream: status code %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		gc, err := gabs.ParseJSON(line)
		if err != nil {
			log.Errorf("Parsing push message %q: %v", string(line), err)
			continue
		}

		title, _ := gc.Path("notification.title").Data().(string)
		body, _ := gc.Path("notification.body").Data().(string)
		handler(push.Message{Title: title, Body: body})
	}
	return scanner.Err()
}
