// Package optimistic applies a local change before the server confirms it
// and undoes it if the server refuses.
package optimistic

import "sync"

// Pending is an applied change awaiting its outcome
type Pending struct {
	once sync.Once
	undo func()
}

// Apply runs mutate immediately and keeps the undo it returns. A nil undo
// makes Rollback a no-op.
func Apply(mutate func() (undo func())) *Pending {
	return &Pending{undo: mutate()}
}

// Commit keeps the change. Only the first of Commit or Rollback counts.
func (p *Pending) Commit() {
	p.once.Do(func() {})
}

// Rollback undoes the change unless it was already settled.
func (p *Pending) Rollback() {
	p.once.Do(func() {
		if p.undo != nil {
			p.undo()
		}
	})
}

// Settle commits when err is nil and rolls back otherwise. It returns err.
func (p *Pending) Settle(err error) error {
	if err != nil {
		p.Rollback()
		return err
	}
	p.Commit()
	return nil
}
