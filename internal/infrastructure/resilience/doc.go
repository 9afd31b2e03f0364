/*
Package resilience provides a circuit breaker for outbound calls.

The breaker guards the routing service lookup so that a dead endpoint costs
one fast rejection per call instead of a full timeout.

# Usage

	breaker := resilience.New("route", resilience.Settings{
		MaxProbes:  1,
		Cooldown:   30 * time.Second,
		ShouldTrip: resilience.ConsecutiveFailures(3),
	})

	route, err := resilience.Do(breaker, func() (Route, error) {
		return client.Fetch(ctx)
	})

# States

	Closed --[ShouldTrip]-> Open --[Cooldown]-> Half-Open --[MaxProbes successes]-> Closed
	                                                |
	                                            [failure]
	                                                v
	                                              Open
*/
package resilience
