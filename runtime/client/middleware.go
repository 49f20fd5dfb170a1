package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/satishbabariya/prisma-engine-go/internal/debug"
	"github.com/satishbabariya/prisma-engine-go/query"
	"github.com/satishbabariya/prisma-engine-go/runtime/types"
)

// QueryEvent describes one dispatched request
type QueryEvent struct {
	Method    query.Method
	Action    string
	Operation query.Operation
	Model     string
	Arguments types.Map
	Payload   []byte
	TxID      string
	Result    json.RawMessage
	Duration  time.Duration
	Error     error
	Start     time.Time
	End       time.Time
}

// Middleware is a function that intercepts queries
type Middleware func(ctx context.Context, event *QueryEvent, next func() error) error

// Use adds middlewares to the chain. Transaction copies share the chain.
func (c *Client) Use(mw ...Middleware) {
	c.core.mu.Lock()
	defer c.core.mu.Unlock()
	c.core.middlewares = append(c.core.middlewares, mw...)
}

// run executes exec through the middleware chain
func (c *Client) run(ctx context.Context, event *QueryEvent, exec func() error) error {
	c.core.mu.RLock()
	middlewares := c.core.middlewares
	c.core.mu.RUnlock()

	event.Start = time.Now()
	index := 0
	var next func() error
	next = func() error {
		if index >= len(middlewares) {
			// Last middleware, execute the actual query
			err := exec()
			event.End = time.Now()
			event.Duration = event.End.Sub(event.Start)
			event.Error = err
			return err
		}
		mw := middlewares[index]
		index++
		return mw(ctx, event, next)
	}
	return next()
}

// LoggingMiddleware logs every query through the debug logger
func LoggingMiddleware() Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		log := debug.With("action", event.Action, "model", event.Model)
		if event.TxID != "" {
			log = log.With("tx", event.TxID)
		}
		log.Debug("executing query", "payload", string(event.Payload))
		err := next()
		if err != nil {
			log.Debug("query failed", "error", err, "duration", event.Duration)
		} else {
			log.Debug("query completed", "duration", event.Duration)
		}
		return err
	}
}

// TimingMiddleware reports the duration of every query
func TimingMiddleware(onTiming func(event *QueryEvent, duration time.Duration)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if onTiming != nil {
			onTiming(event, event.Duration)
		}
		return err
	}
}

// ErrorMiddleware reports every failed query
func ErrorMiddleware(onError func(event *QueryEvent, err error)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if err != nil && onError != nil {
			onError(event, err)
		}
		return err
	}
}
