package circuitbreaker

import (
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

var (
	// MaxNumOfFailingRequests ...
	MaxNumOfFailingRequests = 10
	// FailingRatio ...
	FailingRatio = 0.6
)

// NewCircuitBreaker is a factory function returning a *gobreaker.CircuitBreaker
// guarding calls to the block explorer. The breaker opens once the overall
// number of requests exceeds MaxNumOfFailingRequests with a failing ratio of
// at least FailingRatio, so that a flaky or unreachable explorer cannot stall
// payment execution. State changes are logged: an open breaker means payments
// fail fast until the explorer recovers.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: name,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return int(counts.Requests) > MaxNumOfFailingRequests && ratio >= FailingRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			entry := log.WithFields(log.Fields{
				"service": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			if to == gobreaker.StateOpen {
				entry.Warn("circuit breaker opened, calls are short-circuited")
				return
			}
			entry.Info("circuit breaker state changed")
		},
	})
}
