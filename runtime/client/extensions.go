package client

import (
	"context"

	"github.com/satishbabariya/prisma-engine-go/query"
)

// Hook runs before or after a query. An error from a before hook aborts
// the query; an error from an after hook replaces its result error.
type Hook func(ctx context.Context, event *QueryEvent) error

// Extension groups hooks that run per operation kind.
type Extension struct {
	Name string

	BeforeQuery    Hook
	AfterQuery     Hook
	BeforeMutation Hook
	AfterMutation  Hook
}

// Extend installs extensions as middleware. Before hooks run in
// installation order, after hooks in reverse order.
func (c *Client) Extend(exts ...Extension) {
	for _, ext := range exts {
		c.Use(ext.middleware())
	}
}

func (ext Extension) middleware() Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		before, after := ext.BeforeQuery, ext.AfterQuery
		if event.Operation == query.OperationMutation {
			before, after = ext.BeforeMutation, ext.AfterMutation
		}
		if before != nil {
			if err := before(ctx, event); err != nil {
				return err
			}
		}
		err := next()
		if after != nil {
			if hookErr := after(ctx, event); hookErr != nil {
				return hookErr
			}
		}
		return err
	}
}
