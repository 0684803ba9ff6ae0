package client

import (
	"context"
	"sync"

	"github.com/gammazero/workerpool"
)

// statusWorkers caps concurrent connection-status lookups.
const statusWorkers = 4

// StatusState tags one entry in a status map.
type StatusState int

const (
	StatusPending StatusState = iota
	StatusLoaded
	StatusError
)

// StatusResult is one listing's connection-status lookup outcome. Loaded
// results carry the status string, failed ones carry the error; the caller
// renders each card from its own entry.
type StatusResult struct {
	State  StatusState
	Status string
	Err    error
}

// FetchConnectionStatuses looks up the caller's connection status for every
// listing in parallel and returns a map keyed by listing ID. One slow or
// failed lookup never blocks or poisons the others: each result lands under
// its own key regardless of arrival order.
func FetchConnectionStatuses(ctx context.Context, api API, listingIDs []int64) map[int64]StatusResult {
	results := make(map[int64]StatusResult, len(listingIDs))
	for _, id := range listingIDs {
		results[id] = StatusResult{State: StatusPending}
	}

	var mu sync.Mutex
	wp := workerpool.New(statusWorkers)
	for _, id := range listingIDs {
		id := id
		wp.Submit(func() {
			status, err := api.GetConnectionStatus(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				results[id] = StatusResult{State: StatusError, Err: err}
				return
			}
			results[id] = StatusResult{State: StatusLoaded, Status: status}
		})
	}
	wp.StopWait()

	return results
}
