// Package engine supervises the Prisma query engine process and routes
// requests to its HTTP interface.
package engine

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/satishbabariya/prisma-engine-go/internal/debug"
	prismaerrors "github.com/satishbabariya/prisma-engine-go/runtime/errors"
	"github.com/satishbabariya/prisma-engine-go/telemetry"
	"github.com/satishbabariya/prisma-engine-go/transport"
)

const (
	// DefaultConnectTimeout bounds the readiness probe.
	DefaultConnectTimeout = 10 * time.Second

	pollInterval       = 100 * time.Millisecond
	failedSpawnTimeout = 5 * time.Second
)

// State is the lifecycle state of a Controller.
type State int

const (
	StateDisconnected State = iota
	StateSpawning
	StateReady
	StateDisconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateSpawning:
		return "spawning"
	case StateReady:
		return "ready"
	case StateDisconnecting:
		return "disconnecting"
	}
	return "unknown"
}

// Protocol is the wire format the engine is asked to speak.
type Protocol string

const (
	ProtocolGraphQL Protocol = "graphql"
	ProtocolJSON    Protocol = "json"
)

// Options configures a Controller.
type Options struct {
	SchemaPath     string
	Protocol       Protocol
	Datasources    []DatasourceOverride
	LogQueries     bool
	Debug          bool
	Playground     bool
	ConnectTimeout time.Duration
	Resolver       *BinaryResolver
	// URL attaches to an engine that is already running instead of
	// spawning one.
	URL       string
	Transport []transport.Option
	Getenv    func(string) string
}

// Option configures a Controller.
type Option func(*Options)

// DefaultOptions returns the default controller options.
func DefaultOptions() Options {
	return Options{
		SchemaPath:     "schema.prisma",
		Protocol:       ProtocolGraphQL,
		ConnectTimeout: DefaultConnectTimeout,
		Getenv:         os.Getenv,
	}
}

func WithSchemaPath(path string) Option { return func(o *Options) { o.SchemaPath = path } }

func WithProtocol(p Protocol) Option { return func(o *Options) { o.Protocol = p } }

func WithDatasources(ds ...DatasourceOverride) Option {
	return func(o *Options) { o.Datasources = append(o.Datasources, ds...) }
}

func WithLogQueries(enable bool) Option { return func(o *Options) { o.LogQueries = enable } }

func WithDebug(enable bool) Option { return func(o *Options) { o.Debug = enable } }

func WithPlayground(enable bool) Option { return func(o *Options) { o.Playground = enable } }

func WithConnectTimeout(d time.Duration) Option { return func(o *Options) { o.ConnectTimeout = d } }

func WithResolver(r *BinaryResolver) Option { return func(o *Options) { o.Resolver = r } }

// WithURL attaches to a running engine at url.
func WithURL(url string) Option { return func(o *Options) { o.URL = strings.TrimSuffix(url, "/") } }

func WithTransport(opts ...transport.Option) Option {
	return func(o *Options) { o.Transport = append(o.Transport, opts...) }
}

// Controller owns one engine process and the HTTP session used to reach it.
// It is safe for concurrent use.
type Controller struct {
	opts Options

	mu      sync.Mutex
	state   State
	url     string
	session *transport.Session
	cmd     *exec.Cmd
	exited  chan struct{}
	exitErr error
}

// New creates a disconnected controller.
func New(opts ...Option) *Controller {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Resolver == nil {
		o.Resolver = NewBinaryResolver()
	}
	if o.Getenv == nil {
		o.Getenv = os.Getenv
	}
	c := &Controller{opts: o}
	register(c)
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// URL returns the base URL of the running engine.
func (c *Controller) URL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.url
}

// Pid returns the engine process id, or 0 when no process is running.
func (c *Controller) Pid() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cmd == nil || c.cmd.Process == nil {
		return 0
	}
	return c.cmd.Process.Pid
}

// Connect spawns the engine and waits until it reports ready.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return prismaerrors.AlreadyConnected()
	}
	c.state = StateSpawning
	if c.session == nil || c.session.Closed() {
		c.session = transport.New(c.opts.Transport...)
	}
	c.mu.Unlock()
	register(c)

	debug.Debug("connecting to query engine")
	if len(c.opts.Datasources) > 0 {
		debug.Debug("datasource overrides", "datasources", c.opts.Datasources)
	}
	start := time.Now()

	if err := c.spawn(ctx); err != nil {
		if cerr := c.Close(failedSpawnTimeout); cerr != nil {
			debug.Warn("failed to stop query engine after failed connect", "error", cerr)
		}
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateSpawning {
		return prismaerrors.ClientClosed()
	}
	c.state = StateReady
	debug.Debug("connected to query engine", "url", c.url, "took", time.Since(start))
	return nil
}

func (c *Controller) spawn(ctx context.Context) error {
	if c.opts.URL != "" {
		c.mu.Lock()
		c.url = c.opts.URL
		c.mu.Unlock()
		return c.waitReady(ctx, nil)
	}

	file, err := c.opts.Resolver.Resolve(ctx)
	if err != nil {
		return err
	}
	port, err := freePort()
	if err != nil {
		return fmt.Errorf("failed to acquire a port for the query engine: %w", err)
	}
	env, args, err := c.command(port)
	if err != nil {
		return err
	}
	debug.Debug("starting query engine", "binary", file, "args", args)

	cmd := exec.Command(file, args...)
	cmd.Env = env
	cmd.SysProcAttr = sysProcAttr()
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start query engine: %w", err)
	}

	exited := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); forwardLogs(stdout, "stdout") }()
	go func() { defer wg.Done(); forwardLogs(stderr, "stderr") }()
	go func() {
		wg.Wait()
		err := cmd.Wait()
		c.mu.Lock()
		c.exitErr = err
		c.mu.Unlock()
		close(exited)
	}()

	c.mu.Lock()
	if c.state != StateSpawning {
		c.mu.Unlock()
		_ = cmd.Process.Kill()
		return prismaerrors.ClientClosed()
	}
	c.cmd, c.exited = cmd, exited
	c.url = fmt.Sprintf("http://localhost:%d", port)
	c.mu.Unlock()

	debug.Debug("running query engine", "port", port, "pid", cmd.Process.Pid)
	return c.waitReady(ctx, exited)
}

// command returns the environment and arguments for an engine on port.
func (c *Controller) command(port int) ([]string, []string, error) {
	dml, err := filepath.Abs(c.opts.SchemaPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve schema path: %w", err)
	}

	protocol := c.opts.Protocol
	if protocol == "" {
		protocol = ProtocolGraphQL
	}
	rustLog := "error"
	if c.opts.Debug || debug.Enabled() {
		rustLog = "info"
	}
	vars := [][2]string{
		{"PRISMA_DML_PATH", dml},
		{"RUST_LOG_FORMAT", "json"},
		{"PRISMA_CLIENT_ENGINE_TYPE", "binary"},
		{"PRISMA_ENGINE_PROTOCOL", string(protocol)},
	}

	if c.opts.Datasources != nil {
		resolved := make([]DatasourceOverride, len(c.opts.Datasources))
		for i, ds := range c.opts.Datasources {
			r, err := ds.Resolve(c.opts.Getenv)
			if err != nil {
				return nil, nil, err
			}
			if err := r.Validate(); err != nil {
				return nil, nil, err
			}
			resolved[i] = r
		}
		encoded, err := encodeDatasources(resolved)
		if err != nil {
			return nil, nil, err
		}
		vars = append(vars, [2]string{"OVERWRITE_DATASOURCES", encoded})
	}
	if c.opts.LogQueries {
		vars = append(vars, [2]string{"LOG_QUERIES", "y"})
	}

	args := []string{"--port", strconv.Itoa(port), "--enable-metrics", "--enable-raw-queries"}
	if c.opts.Playground || envBool(c.opts.Getenv("__PRISMA_PY_PLAYGROUND")) || envBool(c.opts.Getenv("PRISMA_GO_PLAYGROUND")) {
		rustLog = "info"
		args = append(args, "--enable-playground")
	}
	vars = append(vars, [2]string{"RUST_LOG", rustLog})

	env := os.Environ()
	for _, kv := range vars {
		env = setenv(env, kv[0], kv[1])
	}
	return env, args, nil
}

// waitReady polls /status until the engine answers without errors.
func (c *Controller) waitReady(ctx context.Context, exited <-chan struct{}) error {
	timeout := c.opts.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	attempts := int(timeout / pollInterval)
	if attempts < 1 {
		attempts = 1
	}

	var last error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-exited:
				c.mu.Lock()
				exitErr := c.exitErr
				c.mu.Unlock()
				if exitErr == nil {
					exitErr = stderrors.New("query engine exited")
				}
				return prismaerrors.Wrap(prismaerrors.KindEngineConnection, exitErr,
					"Could not connect to the query engine: %v", exitErr)
			case <-time.After(pollInterval):
			}
		}

		status, err := c.Status(ctx)
		if err != nil {
			if stderrors.Is(err, prismaerrors.ErrClientClosed) || stderrors.Is(err, prismaerrors.ErrNotConnected) {
				return err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			last = err
			debug.Debug("could not connect to query engine, retrying", "error", err)
			continue
		}
		if errs, ok := status["Errors"]; ok && string(errs) != "null" {
			last = fmt.Errorf("query engine reported errors: %s", errs)
			debug.Debug("could not connect due to engine errors, retrying", "errors", string(errs))
			continue
		}
		return nil
	}
	return prismaerrors.Wrap(prismaerrors.KindEngineConnection, last, "Could not connect to the query engine")
}

// Status returns the decoded GET /status response.
func (c *Controller) Status(ctx context.Context) (map[string]json.RawMessage, error) {
	body, err := c.request(ctx, http.MethodGet, "/status", nil, nil, true)
	if err != nil {
		return nil, err
	}
	var status map[string]json.RawMessage
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, prismaerrors.MalformedResponse("invalid status response: %v", err)
	}
	return status, nil
}

// Query posts a rendered request. A non empty txID routes it to that
// interactive transaction.
func (c *Controller) Query(ctx context.Context, body []byte, txID string) (json.RawMessage, error) {
	var headers map[string]string
	if txID != "" {
		headers = map[string]string{"X-transaction-id": txID}
	}
	return c.request(ctx, http.MethodPost, "/", body, headers, true)
}

type startTransaction struct {
	MaxWait int64 `json:"max_wait"`
	Timeout int64 `json:"timeout"`
}

// StartTransaction opens an interactive transaction and returns its id.
func (c *Controller) StartTransaction(ctx context.Context, maxWait, timeout time.Duration) (string, error) {
	body, err := json.Marshal(startTransaction{
		MaxWait: maxWait.Milliseconds(),
		Timeout: timeout.Milliseconds(),
	})
	if err != nil {
		return "", err
	}
	resp, err := c.request(ctx, http.MethodPost, "/transaction/start", body, nil, true)
	if err != nil {
		return "", err
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp, &out); err != nil || out.ID == "" {
		return "", prismaerrors.MalformedResponse("transaction start returned no id: %s", resp)
	}
	return out.ID, nil
}

// CommitTransaction commits the transaction id.
func (c *Controller) CommitTransaction(ctx context.Context, id string) error {
	_, err := c.request(ctx, http.MethodPost, "/transaction/"+id+"/commit", nil, nil, true)
	return err
}

// RollbackTransaction rolls back the transaction id.
func (c *Controller) RollbackTransaction(ctx context.Context, id string) error {
	_, err := c.request(ctx, http.MethodPost, "/transaction/"+id+"/rollback", nil, nil, true)
	return err
}

// Metrics fetches engine metrics. The JSON format is validated like any
// other response, the Prometheus format is returned as is.
func (c *Controller) Metrics(ctx context.Context, format telemetry.Format, labels map[string]string) ([]byte, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("unknown metrics format %q", format)
	}
	var body []byte
	if labels != nil {
		b, err := json.Marshal(labels)
		if err != nil {
			return nil, err
		}
		body = b
	}
	return c.request(ctx, http.MethodGet, "/metrics?format="+string(format), body, nil, format == telemetry.FormatJSON)
}

func (c *Controller) request(ctx context.Context, method, path string, body []byte, headers map[string]string, parse bool) ([]byte, error) {
	c.mu.Lock()
	url, session := c.url, c.session
	c.mu.Unlock()
	if url == "" || session == nil {
		return nil, prismaerrors.NotConnected()
	}

	h := make(map[string]string, len(headers)+1)
	if parse {
		h["Accept"] = "application/json"
	}
	for k, v := range headers {
		h[k] = v
	}

	resp, err := session.Request(ctx, method, url+path, body, h)
	if err != nil {
		return nil, err
	}
	debug.Debug("engine response", "method", method, "path", path, "status", resp.StatusCode)

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	if !parse {
		return resp.Body, nil
	}
	return ProcessResponse(resp.StatusCode, resp.Body)
}

// Close stops the engine and closes the HTTP session. A zero timeout
// waits for the engine to exit. Close is idempotent.
func (c *Controller) Close(timeout time.Duration) error {
	c.mu.Lock()
	if c.state == StateDisconnecting {
		c.mu.Unlock()
		return nil
	}
	c.state = StateDisconnecting
	cmd, exited, session := c.cmd, c.exited, c.session
	c.cmd, c.exited, c.url = nil, nil, ""
	c.mu.Unlock()
	unregister(c)

	var err error
	if cmd != nil && cmd.Process != nil {
		debug.Debug("disconnecting query engine", "pid", cmd.Process.Pid)
		err = terminate(cmd, exited, timeout)
	}
	if session != nil {
		_ = session.Close()
	}

	c.mu.Lock()
	c.state = StateDisconnected
	c.mu.Unlock()
	debug.Debug("disconnected query engine")
	return err
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func setenv(env []string, key, value string) []string {
	prefix := key + "="
	out := env[:0:0]
	for _, kv := range env {
		if !strings.HasPrefix(kv, prefix) {
			out = append(out, kv)
		}
	}
	return append(out, prefix+value)
}

func envBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "y", "yes":
		return true
	}
	return false
}
