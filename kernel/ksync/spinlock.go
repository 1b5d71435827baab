// Package ksync provides the locking and shared-ownership primitives the
// runtime is built on: SIO hardware spinlocks, a spinlock-guarded cell and a
// manually reference-counted shared cell.
package ksync

import "ember/hal"

// Spinlock is one SIO hardware spinlock.
//
// Two Spinlocks with the same index on the same bank are the same lock.
// Spinlocks are not recursive: acquiring a lock the caller already holds
// spins forever. By default interrupts on the calling core are masked while a
// lock is held, so an interrupt handler can take any lock without
// deadlocking against the code it interrupted.
type Spinlock struct {
	bank     hal.Spinlocks
	n        uint8
	unmasked bool
}

// NewSpinlock returns the spinlock with index n. It panics if n > 31.
func NewSpinlock(bank hal.Spinlocks, n uint8) Spinlock {
	if n >= hal.NumSpinlocks {
		panic("ksync: spinlock index must be <= 31")
	}
	return Spinlock{bank: bank, n: n}
}

// Unmasked returns the same lock acquired with interrupts left enabled. It
// is for locks held across long sections, and only for indices no interrupt
// handler ever takes.
func (s Spinlock) Unmasked() Spinlock {
	s.unmasked = true
	return s
}

// Index returns the hardware lock index.
func (s Spinlock) Index() uint8 { return s.n }

// Masks reports whether holding the lock masks interrupts.
func (s Spinlock) Masks() bool { return !s.unmasked }

// Lock busy-waits until the lock is claimed. The returned token must be
// passed to Unlock.
func (s Spinlock) Lock() IRQState {
	if s.unmasked {
		for !s.bank.TryLock(s.n) {
			spin()
		}
		var none IRQState
		return none
	}
	for {
		st := maskIRQ()
		if s.bank.TryLock(s.n) {
			return st
		}
		restoreIRQ(st)
		spin()
	}
}

// Unlock releases the lock and restores the interrupt state saved by Lock.
func (s Spinlock) Unlock(st IRQState) {
	s.bank.Unlock(s.n)
	if !s.unmasked {
		restoreIRQ(st)
	}
}
