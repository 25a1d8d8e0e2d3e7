package app

import "errors"

// Commands queues changes to the App that are applied after the system
// that received them returns.
type Commands struct {
	queue []func(*App) error
}

// InsertResource queues a resource insertion.
func (c *Commands) InsertResource(res any) {
	c.queue = append(c.queue, func(a *App) error {
		return a.InsertResource(res)
	})
}

// Add queues an arbitrary change.
func (c *Commands) Add(fn func(*App) error) {
	c.queue = append(c.queue, fn)
}

// Len reports the number of queued changes.
func (c *Commands) Len() int {
	return len(c.queue)
}

func (c *Commands) apply(a *App) error {
	var errs []error
	for _, fn := range c.queue {
		if err := fn(a); err != nil {
			errs = append(errs, err)
		}
	}
	c.queue = nil
	return errors.Join(errs...)
}
