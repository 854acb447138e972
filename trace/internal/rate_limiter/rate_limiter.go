package rate_limiter

import (
	"sync"
	"time"
)

// RateLimiter is a leaky bucket formulated as a credit balance that is
// replenished on every CheckCredit call, proportionally to the time elapsed
// since the last call, up to MaxBalance. If the balance covers the cost of
// the item, the item is "purchased" and the balance reduced.
//
// Instantiated with the max number of messages per second and called with
// CheckCredit(1.0) per message, it limits a message rate. With
// creditsPerSecond set to a byte throughput and CheckCredit called with the
// message size, it limits traffic in bytes.
type RateLimiter struct {
	mutex sync.Mutex

	creditsPerSecond float64
	maxBalance       float64
	balance          float64
	lastTick         time.Time

	timeNow func() time.Time
}

func New(creditsPerSecond, maxBalance float64) *RateLimiter {
	return NewWithClock(creditsPerSecond, maxBalance, time.Now)
}

// NewWithClock is used by tests that need to control time.
func NewWithClock(creditsPerSecond, maxBalance float64, timeNow func() time.Time) *RateLimiter {
	return &RateLimiter{
		creditsPerSecond: creditsPerSecond,
		maxBalance:       maxBalance,
		balance:          maxBalance,
		lastTick:         timeNow(),
		timeNow:          timeNow,
	}
}

func (l *RateLimiter) CheckCredit(itemCost float64) bool {
	l.mutex.Lock()
	defer func() {
		l.mutex.Unlock()
	}()
	l.updateBalance()
	if l.balance >= itemCost {
		l.balance -= itemCost
		return true
	}
	return false
}

// Update reconfigures the limiter in place. The new balance stays
// proportional to the old one so an idle limiter keeps its accumulated
// burst allowance across refreshes.
func (l *RateLimiter) Update(creditsPerSecond, maxBalance float64) {
	l.mutex.Lock()
	defer func() {
		l.mutex.Unlock()
	}()
	l.updateBalance()
	l.creditsPerSecond = creditsPerSecond
	l.balance = maxBalance * l.balance / l.maxBalance
	l.maxBalance = maxBalance
}

func (l *RateLimiter) updateBalance() {
	now := l.timeNow()
	elapsed := now.Sub(l.lastTick)
	l.lastTick = now
	l.balance += elapsed.Seconds() * l.creditsPerSecond
	if l.balance > l.maxBalance {
		l.balance = l.maxBalance
	}
}
