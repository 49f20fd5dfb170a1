package client

import (
	"sync"

	prismaerrors "github.com/satishbabariya/prisma-engine-go/runtime/errors"
)

var (
	registryMu sync.RWMutex
	registered *Client
)

// Register makes c the process wide client returned by GetClient.
func Register(c *Client) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	if registered != nil {
		return prismaerrors.ClientAlreadyRegistered()
	}
	registered = c
	return nil
}

// GetClient returns the registered client.
func GetClient() (*Client, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if registered == nil {
		return nil, prismaerrors.ClientNotRegistered()
	}
	return registered, nil
}

// ResetRegistry clears the registered client.
func ResetRegistry() {
	registryMu.Lock()
	registered = nil
	registryMu.Unlock()
}

// OverrideRegistered replaces the registered client until restore is
// called. Intended for tests.
func OverrideRegistered(c *Client) (restore func()) {
	registryMu.Lock()
	prev := registered
	registered = c
	registryMu.Unlock()
	return func() {
		registryMu.Lock()
		registered = prev
		registryMu.Unlock()
	}
}
