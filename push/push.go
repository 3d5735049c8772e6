// Package push is the ephemeral alert channel: it acquires a device token
// from a push provider and turns the provider's foreground messages into
// alerts while the session is active. It is best effort and fully
// independent of the persisted notification feed, which stays usable when
// this channel is disabled.
package push

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

// Message is a single foreground message from the provider.
type Message struct {
	Title string
	Body  string
}

// Alert is what the channel surfaces to the user: ephemeral, never written
// to the notification table.
type Alert struct {
	Title string
	Body  string
}

// Provider is the external push system. The token is an opaque string whose
// format belongs to the provider.
type Provider interface {
	Register(ctx context.Context) (string, error)
	Subscribe(ctx context.Context, token string, handler func(Message)) (func(), error)
}

// Permissioner reports whether push is available at all and what the user
// decided about it.
type Permissioner interface {
	Supported() bool
	Permission() Permission
	RequestPermission() Permission
}

type State string

const (
	StateIdle        State = "idle"
	StateActive      State = "active"
	StateUnsupported State = "unsupported"
	StateDenied      State = "permission_denied"
	StateUnpermitted State = "unpermitted"
	StateFailed      State = "failed"
)

// terminal states stay for the rest of the session; Start on a terminal
// channel is a no-op.
func (s State) terminal() bool {
	return s == StateUnsupported || s == StateDenied || s == StateFailed
}

type Config struct {
	TokenMaxAttempts int           `env:"PUSH_TOKEN_MAX_ATTEMPTS" envDefault:"3"`
	TokenRetryWait   time.Duration `env:"PUSH_TOKEN_RETRY_WAIT" envDefault:"0s"`
	Supported        bool          `env:"PUSH_SUPPORTED" envDefault:"true"`
	Permission       string        `env:"PUSH_PERMISSION" envDefault:"granted"`
}

type Channel struct {
	cfg         Config
	provider    Provider
	permissions Permissioner
	alerts      func(Alert)

	mu          sync.Mutex
	starting    bool
	state       State
	token       string
	unsubscribe func()
}

func NewChannel(cfg Config, provider Provider, permissions Permissioner, alerts func(Alert)) *Channel {
	if cfg.TokenMaxAttempts <= 0 {
		cfg.TokenMaxAttempts = 3
	}
	return &Channel{
		cfg:         cfg,
		provider:    provider,
		permissions: permissions,
		alerts:      alerts,
		state:       StateIdle,
	}
}

// Start runs the channel protocol: support check, permission flow, bounded
// token acquisition, foreground subscription. A second Start while one is in
// flight or while the channel is active is suppressed, so duplicate
// subscriptions can't deliver the same message twice. Failures never affect
// the persisted debt and notification workflow.
func (c *Channel) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.starting || c.state == StateActive || c.state.terminal() {
		c.mu.Unlock()
		return nil
	}
	c.starting = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.starting = false
		c.mu.Unlock()
	}()

	if !c.permissions.Supported() {
		c.setState(StateUnsupported)
		log.Println("Push notifications are not supported in this environment")
		return nil
	}

	perm := c.permissions.Permission()
	if perm != PermissionGranted && perm != PermissionDenied {
		perm = c.permissions.RequestPermission()
	}
	switch perm {
	case PermissionGranted:
	case PermissionDenied:
		c.setState(StateDenied)
		c.surface("Push notifications disabled", "Notification permission was denied. In-app notifications keep working.")
		return nil
	default:
		c.setState(StateUnpermitted)
		return nil
	}

	token, err := c.acquireToken(ctx)
	if err != nil {
		c.setState(StateFailed)
		c.surface("Push notifications unavailable", "Could not get a push token. In-app notifications keep working.")
		return fmt.Errorf("acquire push token: %w", err)
	}

	unsubscribe, err := c.provider.Subscribe(ctx, token, c.handleMessage)
	if err != nil {
		c.setState(StateFailed)
		return fmt.Errorf("subscribe to foreground messages: %w", err)
	}

	c.mu.Lock()
	c.token = token
	c.unsubscribe = unsubscribe
	c.state = StateActive
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.Stop()
	}()

	return nil
}

// Stop tears down the foreground subscription so no handler keeps firing
// for an ended session. Safe to call more than once.
func (c *Channel) Stop() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.token = ""
	if c.state == StateActive {
		c.state = StateIdle
	}
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Refresh drops the current token and subscription and runs the acquisition
// flow again. Used when the provider rotates tokens; the old subscription is
// torn down first so two handlers never fire for the same message.
func (c *Channel) Refresh(ctx context.Context) error {
	c.Stop()
	return c.Start(ctx)
}

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Channel) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Channel) setState(state State) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

func (c *Channel) acquireToken(ctx context.Context) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.TokenMaxAttempts; attempt++ {
		token, err := c.provider.Register(ctx)
		if err == nil && token != "" {
			return token, nil
		}
		if err == nil {
			err = fmt.Errorf("provider returned an empty token")
		}
		lastErr = err
		log.Printf("Error acquiring push token (attempt %d/%d): %v\n", attempt, c.cfg.TokenMaxAttempts, err)

		if c.cfg.TokenRetryWait > 0 && attempt < c.cfg.TokenMaxAttempts {
			select {
			case <-time.After(c.cfg.TokenRetryWait):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", fmt.Errorf("after %d attempts: %w", c.cfg.TokenMaxAttempts, lastErr)
}

func (c *Channel) handleMessage(msg Message) {
	// The user may revoke permission while subscribed.
	if c.permissions.Permission() != PermissionGranted {
		return
	}
	c.surface(msg.Title, msg.Body)
}

func (c *Channel) surface(title, body string) {
	if c.alerts == nil {
		return
	}
	c.alerts(Alert{Title: title, Body: body})
}

// StaticPermissions is a Permissioner fixed at startup, for runtimes with no
// interactive permission prompt.
type StaticPermissions struct {
	supported bool
	state     Permission
}

func NewStaticPermissions(cfg Config) *StaticPermissions {
	state := Permission(cfg.Permission)
	switch state {
	case PermissionGranted, PermissionDenied, PermissionDefault:
	default:
		state = PermissionDefault
	}
	return &StaticPermissions{supported: cfg.Supported, state: state}
}

func (p *StaticPermissions) Supported() bool { return p.supported }

func (p *StaticPermissions) Permission() Permission { return p.state }

// RequestPermission grants a default state: a static configuration has no
// one to ask.
func (p *StaticPermissions) RequestPermission() Permission {
	if p.state == PermissionDefault {
		p.state = PermissionGranted
	}
	return p.state
}
