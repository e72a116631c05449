/*
Copyright 2022 Red Hat

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
)

// Operation - the asynchronous stack operation being awaited.
type Operation string

const (
	// OperationCreate -
	OperationCreate Operation = "CREATE"
	// OperationDelete -
	OperationDelete Operation = "DELETE"
)

const (
	defaultInterval         = 5 * time.Second
	defaultTransportRetries = 3
)

// StatusClient - the lookup capability the poller drives.
type StatusClient interface {
	Get(ctx context.Context, name string) (Resource, error)
}

// Poller - watches an asynchronous remote operation until it reaches a
// terminal state. The context bounds the loop: callers pass a deadline or
// cancellation so polling never runs unbounded.
type Poller struct {
	Client   StatusClient
	Interval time.Duration
	// TransportRetries is the budget of consecutive failed lookups tolerated
	// before the poll aborts. Authoritative not-found is never retried.
	TransportRetries int
	Log              logr.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewPoller -
func NewPoller(client StatusClient, log logr.Logger) *Poller {
	return &Poller{
		Client:           client,
		Interval:         defaultInterval,
		TransportRetries: defaultTransportRetries,
		Log:              log,
		sleep:            sleepContext,
	}
}

// Await - poll until the operation reaches a terminal state.
//
// Terminal states:
//   - <OP>_COMPLETE: success
//   - <OP>_FAILED, ROLLBACK_COMPLETE, <OP>_ROLLBACK_COMPLETE: failure,
//     reported with the remote status text and never retried
//   - not-found: success for DELETE ("Stack Deleted") but failure for
//     CREATE ("Stack Not Found"); the two operations share this loop and
//     deliberately diverge in how they read disappearance
func (p *Poller) Await(ctx context.Context, name string, op Operation) (Outcome, error) {
	failures := 0
	for {
		res, err := p.Client.Get(ctx, name)
		switch {
		case err == nil:
			failures = 0
			outcome, terminal, terr := evaluate(res, op)
			if terr != nil {
				return Outcome{}, terr
			}
			if terminal {
				return outcome, nil
			}
			p.Log.Info("operation in progress", "name", name, "operation", string(op), "status", res.Status)
		case IsNotFoundError(err):
			if op == OperationDelete {
				return Outcome{Changed: true, Msg: "Stack Deleted"}, nil
			}
			return Outcome{}, &OperationFailedError{
				Operation: string(op),
				Status:    "NOT_FOUND",
				Reason:    "Stack Not Found",
			}
		default:
			failures++
			if failures > p.TransportRetries {
				return Outcome{}, err
			}
			p.Log.Info("lookup failed, retrying", "name", name, "attempt", failures, "error", err.Error())
		}

		if err := p.sleep(ctx, p.Interval); err != nil {
			return Outcome{}, err
		}
	}
}

func evaluate(res Resource, op Operation) (Outcome, bool, error) {
	switch res.Status {
	case string(op) + "_COMPLETE":
		return Outcome{Changed: true, ID: res.ID, Msg: fmt.Sprintf("Stack %s complete", op)}, true, nil
	case string(op) + "_FAILED":
		return Outcome{}, true, &OperationFailedError{
			Operation: string(op),
			Status:    res.Status,
			Reason:    res.StatusReason,
		}
	case "ROLLBACK_COMPLETE", string(op) + "_ROLLBACK_COMPLETE":
		return Outcome{}, true, &OperationFailedError{
			Operation: string(op),
			Status:    res.Status,
			Reason:    res.StatusReason,
		}
	default:
		return Outcome{}, false, nil
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
