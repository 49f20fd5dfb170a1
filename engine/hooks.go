package engine

import (
	"sync"
	"time"

	"github.com/satishbabariya/prisma-engine-go/internal/debug"
)

var hooks = struct {
	sync.Mutex
	controllers map[*Controller]struct{}
}{controllers: make(map[*Controller]struct{})}

func register(c *Controller) {
	hooks.Lock()
	defer hooks.Unlock()
	hooks.controllers[c] = struct{}{}
}

func unregister(c *Controller) {
	hooks.Lock()
	defer hooks.Unlock()
	delete(hooks.controllers, c)
}

// CloseAll stops every engine started by this process. Programs call it
// from their signal handler so that an interrupted parent does not leak
// engine processes.
func CloseAll(timeout time.Duration) {
	hooks.Lock()
	controllers := make([]*Controller, 0, len(hooks.controllers))
	for c := range hooks.controllers {
		controllers = append(controllers, c)
	}
	hooks.Unlock()

	var wg sync.WaitGroup
	for _, c := range controllers {
		wg.Add(1)
		go func(c *Controller) {
			defer wg.Done()
			if err := c.Close(timeout); err != nil {
				debug.Warn("failed to stop query engine", "error", err)
			}
		}(c)
	}
	wg.Wait()
}
