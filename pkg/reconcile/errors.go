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
	"errors"
	"fmt"
)

// AmbiguousResourceError - a descriptor expected to identify at most one
// remote resource matched several. The remote service is assumed to enforce
// uniqueness, so multiple matches are a consistency violation and always
// fatal, never silently resolved.
type AmbiguousResourceError struct {
	Resource string
	Matches  int
}

func (e *AmbiguousResourceError) Error() string {
	return fmt.Sprintf("%d resources match %s, expected at most one", e.Matches, e.Resource)
}

// IsAmbiguousResourceError -
func IsAmbiguousResourceError(err error) bool {
	var target *AmbiguousResourceError
	return errors.As(err, &target)
}

// NotFoundError - authoritative remote "does not exist". On absent paths and
// DELETE polls it is evidence of success, not failure.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// IsNotFoundError -
func IsNotFoundError(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// TransportError - the remote call itself failed (network, HTTP 5xx, expired
// token). Kept distinct from NotFoundError so the poll loop can retry an
// outage instead of misreading it as deletion.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure while %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransportError -
func IsTransportError(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// SubmissionError - the remote API rejected a create or delete call. Fatal,
// surfaced verbatim, not retried.
type SubmissionError struct {
	Op       string
	Resource string
	Err      error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s of %s rejected: %v", e.Op, e.Resource, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// IsSubmissionError -
func IsSubmissionError(err error) bool {
	var target *SubmissionError
	return errors.As(err, &target)
}

// OperationFailedError - the remote system reports the asynchronous
// operation itself failed. Carries the remote status text.
type OperationFailedError struct {
	Operation string
	Status    string
	Reason    string
}

func (e *OperationFailedError) Error() string {
	return fmt.Sprintf("operation %s failed with status %s: %s", e.Operation, e.Status, e.Reason)
}

// IsOperationFailedError -
func IsOperationFailedError(err error) bool {
	var target *OperationFailedError
	return errors.As(err, &target)
}

// AuthenticationError - credential exchange failed or required credentials
// are missing. Fatal before any resource work begins.
type AuthenticationError struct {
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return "authentication failed: " + e.Reason
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// IsAuthenticationError -
func IsAuthenticationError(err error) bool {
	var target *AuthenticationError
	return errors.As(err, &target)
}
