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

// Package reconcile implements the lookup-then-mutate primitive shared by
// the cloud modules: given a desired state for a named remote resource,
// query the remote system, perform the minimal mutation needed to converge
// and report whether a change occurred. The remote system is the sole
// source of truth; nothing persists between invocations.
package reconcile

import (
	"context"
)

// Resource - the minimal view of a remote resource the reconciler needs.
type Resource struct {
	ID           string
	Name         string
	Status       string
	StatusReason string
}

// Outcome - result of one reconciliation pass. Changed=false with a
// populated ID means the resource already matched the desired state.
type Outcome struct {
	Changed bool
	ID      string
	Msg     string
}

// Client - capability set for one resource kind. List returns only the
// resources matching the descriptor the client was built with; the match is
// conjunctive attribute equality over every supplied descriptor field,
// applied by the kind-specific client.
type Client interface {
	List(ctx context.Context) ([]Resource, error)
	Create(ctx context.Context) (Resource, error)
	Delete(ctx context.Context, id string) error
	Describe() string
}

// EnsurePresent - create the resource unless it already exists. Check mode
// short-circuits before the mutating call but still performs the lookup
// needed to decide whether a change would occur.
func EnsurePresent(ctx context.Context, c Client, checkMode bool) (Outcome, error) {
	matches, err := c.List(ctx)
	if err != nil {
		return Outcome{}, err
	}

	switch len(matches) {
	case 0:
		if checkMode {
			return Outcome{Changed: true}, nil
		}
		created, err := c.Create(ctx)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Changed: true, ID: created.ID}, nil
	case 1:
		return Outcome{Changed: false, ID: matches[0].ID}, nil
	default:
		return Outcome{}, &AmbiguousResourceError{Resource: c.Describe(), Matches: len(matches)}
	}
}

// EnsureAbsent - delete the resource if it exists.
func EnsureAbsent(ctx context.Context, c Client, checkMode bool) (Outcome, error) {
	matches, err := c.List(ctx)
	if err != nil {
		return Outcome{}, err
	}

	switch len(matches) {
	case 0:
		return Outcome{Changed: false}, nil
	case 1:
		if checkMode {
			return Outcome{Changed: true}, nil
		}
		if err := c.Delete(ctx, matches[0].ID); err != nil {
			return Outcome{}, err
		}
		return Outcome{Changed: true}, nil
	default:
		return Outcome{}, &AmbiguousResourceError{Resource: c.Describe(), Matches: len(matches)}
	}
}
