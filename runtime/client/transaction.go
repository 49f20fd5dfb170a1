package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/satishbabariya/prisma-engine-go/internal/debug"
	prismaerrors "github.com/satishbabariya/prisma-engine-go/runtime/errors"
)

// TxState is the lifecycle state of an interactive transaction.
type TxState int

const (
	TxNotStarted TxState = iota
	TxActive
	TxCommitted
	TxRolledBack
)

func (s TxState) String() string {
	switch s {
	case TxActive:
		return "active"
	case TxCommitted:
		return "committed"
	case TxRolledBack:
		return "rolled back"
	default:
		return "not started"
	}
}

// TxOptions holds the engine limits of an interactive transaction.
type TxOptions struct {
	// MaxWait is how long the engine waits to acquire a connection.
	MaxWait time.Duration
	// Timeout is how long the transaction may run before the engine
	// rolls it back.
	Timeout time.Duration
}

// TxOption configures a transaction.
type TxOption func(*TxOptions)

// WithMaxWait sets the acquisition wait of a transaction.
func WithMaxWait(d time.Duration) TxOption {
	return func(o *TxOptions) { o.MaxWait = d }
}

// WithTimeout sets the run time limit of a transaction.
func WithTimeout(d time.Duration) TxOption {
	return func(o *TxOptions) { o.Timeout = d }
}

// TxManager drives one interactive transaction. Queries go through the
// client returned by Start.
type TxManager struct {
	client *Client
	opts   TxOptions

	mu    sync.Mutex
	state TxState
	id    string
}

// Tx prepares an interactive transaction on c.
func (c *Client) Tx(opts ...TxOption) *TxManager {
	o := TxOptions{MaxWait: c.core.opts.TxMaxWait, Timeout: c.core.opts.TxTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return &TxManager{client: c, opts: o}
}

// ID returns the server transaction id, or "" before Start.
func (m *TxManager) ID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id
}

// State returns the lifecycle state.
func (m *TxManager) State() TxState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start begins the transaction and returns a copy of the client bound to
// it. The original client stays outside the transaction.
func (m *TxManager) Start(ctx context.Context) (*Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != TxNotStarted {
		return nil, fmt.Errorf("transaction %s is %s", m.id, m.state)
	}
	if m.client.txID != "" {
		debug.Warn("the current client is already in a transaction, this can cause undefined behaviour",
			"tx", m.client.txID)
	}

	id, err := m.client.core.engine.StartTransaction(ctx, m.opts.MaxWait, m.opts.Timeout)
	if err != nil {
		return nil, err
	}
	m.id = id
	m.state = TxActive
	debug.Debug("transaction started", "tx", id)
	return &Client{core: m.client.core, txID: id}, nil
}

// Commit commits the transaction.
func (m *TxManager) Commit(ctx context.Context) error {
	return m.finish(ctx, TxCommitted, m.client.core.engine.CommitTransaction)
}

// Rollback rolls the transaction back.
func (m *TxManager) Rollback(ctx context.Context) error {
	return m.finish(ctx, TxRolledBack, m.client.core.engine.RollbackTransaction)
}

func (m *TxManager) finish(ctx context.Context, to TxState, call func(context.Context, string) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case TxNotStarted:
		return prismaerrors.TransactionNotStarted()
	case TxCommitted, TxRolledBack:
		return prismaerrors.TransactionClosed(m.id, m.state.String())
	}
	// The id is spent whether or not the engine accepts the call.
	m.state = to
	if err := call(ctx, m.id); err != nil {
		return err
	}
	debug.Debug("transaction finished", "tx", m.id, "state", to.String())
	return nil
}

// Transaction runs fn inside an interactive transaction. The transaction is
// committed when fn returns nil and rolled back when it returns an error or
// panics. A failed rollback is logged and the error of fn is returned.
func (c *Client) Transaction(ctx context.Context, fn func(tx *Client) error, opts ...TxOption) (err error) {
	m := c.Tx(opts...)
	tx, err := m.Start(ctx)
	if err != nil {
		return err
	}

	rollback := func() {
		if rbErr := m.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			debug.Warn("error while rolling back transaction", "tx", m.ID(), "error", rbErr)
		}
	}
	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		rollback()
		return err
	}
	return m.Commit(ctx)
}
