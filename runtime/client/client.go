// Package client provides the runtime client for Prisma Go. A Client turns
// method calls into engine requests, dispatches them through the query
// engine and decodes the results.
package client

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/satishbabariya/prisma-engine-go/config"
	"github.com/satishbabariya/prisma-engine-go/engine"
	"github.com/satishbabariya/prisma-engine-go/internal/debug"
	"github.com/satishbabariya/prisma-engine-go/query/builder"
	"github.com/satishbabariya/prisma-engine-go/query/jsonproto"
	prismaerrors "github.com/satishbabariya/prisma-engine-go/runtime/errors"
	"github.com/satishbabariya/prisma-engine-go/runtime/metadata"
	"github.com/satishbabariya/prisma-engine-go/telemetry"
)

const (
	// DefaultTxMaxWait is how long the engine waits to acquire a transaction.
	DefaultTxMaxWait = 2 * time.Second
	// DefaultTxTimeout is how long an interactive transaction may run.
	DefaultTxTimeout = 5 * time.Second
	// DefaultCloseTimeout bounds engine shutdown on Disconnect.
	DefaultCloseTimeout = 5 * time.Second
)

// Engine is the query engine a client talks to. *engine.Controller
// implements it.
type Engine interface {
	Connect(ctx context.Context) error
	Close(timeout time.Duration) error
	Query(ctx context.Context, body []byte, txID string) (json.RawMessage, error)
	StartTransaction(ctx context.Context, maxWait, timeout time.Duration) (string, error)
	CommitTransaction(ctx context.Context, id string) error
	RollbackTransaction(ctx context.Context, id string) error
	Metrics(ctx context.Context, format telemetry.Format, labels map[string]string) ([]byte, error)
}

// Options configures a Client.
type Options struct {
	Protocol      engine.Protocol
	TxMaxWait     time.Duration
	TxTimeout     time.Duration
	CloseTimeout  time.Duration
	Engine        Engine
	EngineOptions []engine.Option
	Middlewares   []Middleware
}

// Option configures a Client.
type Option func(*Options)

// DefaultOptions returns the default client options.
func DefaultOptions() Options {
	return Options{
		Protocol:     engine.ProtocolGraphQL,
		TxMaxWait:    DefaultTxMaxWait,
		TxTimeout:    DefaultTxTimeout,
		CloseTimeout: DefaultCloseTimeout,
	}
}

// WithProtocol selects the wire protocol.
func WithProtocol(p engine.Protocol) Option {
	return func(o *Options) { o.Protocol = p }
}

// WithTxDefaults sets the default interactive transaction limits.
func WithTxDefaults(maxWait, timeout time.Duration) Option {
	return func(o *Options) { o.TxMaxWait, o.TxTimeout = maxWait, timeout }
}

// WithCloseTimeout bounds engine shutdown.
func WithCloseTimeout(d time.Duration) Option {
	return func(o *Options) { o.CloseTimeout = d }
}

// WithEngine uses e instead of spawning a query engine.
func WithEngine(e Engine) Option {
	return func(o *Options) { o.Engine = e }
}

// WithEngineOptions configures the spawned query engine.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(o *Options) { o.EngineOptions = append(o.EngineOptions, opts...) }
}

// WithMiddleware installs middlewares at construction.
func WithMiddleware(mw ...Middleware) Option {
	return func(o *Options) { o.Middlewares = append(o.Middlewares, mw...) }
}

// core is shared by a client and the transaction bound copies made from it.
type core struct {
	engine  Engine
	schema  *metadata.Schema
	builder *builder.Builder
	opts    Options

	mu          sync.RWMutex
	middlewares []Middleware
	connected   bool
}

// Client is the entry point for queries. The copies returned by a
// transaction share the engine and carry a transaction id.
type Client struct {
	core *core
	txID string
}

// New creates a client for schema.
func New(schema *metadata.Schema, opts ...Option) *Client {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if schema == nil {
		schema = metadata.NewSchema()
	}
	eng := o.Engine
	if eng == nil {
		eopts := append([]engine.Option{engine.WithProtocol(o.Protocol)}, o.EngineOptions...)
		eng = engine.New(eopts...)
	}
	return &Client{core: &core{
		engine:      eng,
		schema:      schema,
		builder:     builder.New(schema),
		opts:        o,
		middlewares: append([]Middleware(nil), o.Middlewares...),
	}}
}

// NewFromConfig creates a client from loaded configuration.
func NewFromConfig(cfg *config.Config, schema *metadata.Schema, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Debug {
		debug.Init(true)
	}
	base := []Option{
		WithProtocol(cfg.Engine.Protocol),
		WithTxDefaults(cfg.Tx.MaxWait, cfg.Tx.Timeout),
		WithEngineOptions(cfg.EngineOptions()...),
	}
	return New(schema, append(base, opts...)...), nil
}

// Schema returns the model metadata the client was built with.
func (c *Client) Schema() *metadata.Schema { return c.core.schema }

// Protocol returns the wire protocol in use.
func (c *Client) Protocol() engine.Protocol { return c.core.opts.Protocol }

// Engine returns the underlying engine.
func (c *Client) Engine() Engine { return c.core.engine }

// TxID returns the bound transaction id, or "".
func (c *Client) TxID() string { return c.txID }

// InTransaction reports whether the client is bound to a transaction.
func (c *Client) InTransaction() bool { return c.txID != "" }

// Connect starts the query engine.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.core.engine.Connect(ctx); err != nil {
		return err
	}
	c.core.mu.Lock()
	c.core.connected = true
	c.core.mu.Unlock()
	return nil
}

// Disconnect stops the query engine. The context deadline, if any,
// bounds the shutdown.
func (c *Client) Disconnect(ctx context.Context) error {
	timeout := c.core.opts.CloseTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			timeout = time.Millisecond
		}
	}
	c.core.mu.Lock()
	c.core.connected = false
	c.core.mu.Unlock()
	return c.core.engine.Close(timeout)
}

// IsConnected reports whether Connect has succeeded and Disconnect has not
// been called since.
func (c *Client) IsConnected() bool {
	c.core.mu.RLock()
	defer c.core.mu.RUnlock()
	return c.core.connected
}

// Render builds the request body for in without sending it.
func (c *Client) Render(in builder.Input) ([]byte, error) {
	if c.core.opts.Protocol == engine.ProtocolJSON {
		req, err := jsonproto.Build(c.core.builder, in)
		if err != nil {
			return nil, err
		}
		return req.Body()
	}
	q, err := c.core.builder.Build(in)
	if err != nil {
		return nil, err
	}
	return q.Body()
}

// Explain returns the GraphQL document, or the indented JSON request, that
// in would send.
func (c *Client) Explain(in builder.Input) (string, error) {
	if c.core.opts.Protocol == engine.ProtocolJSON {
		body, err := c.Render(in)
		if err != nil {
			return "", err
		}
		var v any
		if err := json.Unmarshal(body, &v); err != nil {
			return "", err
		}
		out, err := json.MarshalIndent(v, "", "  ")
		return string(out), err
	}
	q, err := c.core.builder.Build(in)
	if err != nil {
		return "", err
	}
	return q.Document, nil
}

// Execute dispatches one call and returns its raw result value. Validation
// errors are returned before anything is sent.
func (c *Client) Execute(ctx context.Context, in builder.Input) (json.RawMessage, error) {
	if !c.IsConnected() {
		return nil, prismaerrors.NotConnected()
	}
	body, err := c.Render(in)
	if err != nil {
		return nil, err
	}

	event := &QueryEvent{
		Method:    in.Method,
		Action:    in.Method.Action(),
		Operation: in.Method.Operation(),
		Arguments: in.Arguments,
		Payload:   body,
		TxID:      c.txID,
	}
	if in.Model != nil {
		event.Model = in.Model.Name
	}

	var result json.RawMessage
	err = c.run(ctx, event, func() error {
		resp, err := c.core.engine.Query(ctx, body, c.txID)
		if err != nil {
			return err
		}
		result, err = c.extract(resp)
		event.Result = result
		return err
	})
	return result, err
}

// extract returns the single result value of a response.
func (c *Client) extract(resp json.RawMessage) (json.RawMessage, error) {
	var envelope struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp, &envelope); err != nil || envelope.Data == nil {
		return nil, prismaerrors.MalformedResponse("response has no data: %s", resp)
	}

	if c.core.opts.Protocol != engine.ProtocolJSON {
		result, ok := envelope.Data["result"]
		if !ok {
			return nil, prismaerrors.MalformedResponse("response has no result: %s", resp)
		}
		return result, nil
	}

	if len(envelope.Data) != 1 {
		return nil, prismaerrors.MalformedResponse("expected one result, got %d", len(envelope.Data))
	}
	for _, v := range envelope.Data {
		return jsonproto.DeserializeJSON(v)
	}
	return nil, nil
}

// model looks up a model by name.
func (c *Client) model(name string) (*metadata.Model, error) {
	m, ok := c.core.schema.Model(name)
	if !ok {
		return nil, prismaerrors.UnknownModel(name)
	}
	return m, nil
}
