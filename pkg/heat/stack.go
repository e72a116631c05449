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

// Package heat wraps the orchestration v1 stack lifecycle: submit a create
// or delete call, look up stack status for the poll loop, and collect stack
// outputs after completion.
package heat

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/orchestration/v1/stacks"

	"github.com/openstack-ansible-modules/os-cloud-modules/pkg/reconcile"
)

// StackDescriptor - everything a stack create call needs. Optional fields
// are explicit here and omitted from the API call when zero-valued; nothing
// assembles call arguments ad hoc.
type StackDescriptor struct {
	Name            string
	Template        []byte
	Environment     []byte
	Parameters      map[string]interface{}
	Tags            []string
	DisableRollback *bool
	TimeoutMins     int
}

// Client - stack operations against the orchestration v1 API. Satisfies
// reconcile.StatusClient so the poller can drive it.
type Client struct {
	orchestration *gophercloud.ServiceClient
	log           logr.Logger
}

var _ reconcile.StatusClient = (*Client)(nil)

// NewClient -
func NewClient(orchestration *gophercloud.ServiceClient, log logr.Logger) *Client {
	return &Client{orchestration: orchestration, log: log}
}

// Create - submit the stack create call. Rejection is fatal and not retried;
// the caller polls for completion separately.
func (c *Client) Create(ctx context.Context, desc StackDescriptor) (reconcile.Resource, error) {
	opts := &stacks.CreateOpts{
		Name:            desc.Name,
		TemplateOpts:    &stacks.Template{TE: stacks.TE{Bin: desc.Template}},
		DisableRollback: desc.DisableRollback,
		Parameters:      desc.Parameters,
		Tags:            desc.Tags,
		Timeout:         desc.TimeoutMins,
	}
	if len(desc.Environment) > 0 {
		opts.EnvironmentOpts = &stacks.Environment{TE: stacks.TE{Bin: desc.Environment}}
	}

	created, err := stacks.Create(c.orchestration, opts).Extract()
	if err != nil {
		return reconcile.Resource{}, &reconcile.SubmissionError{Op: "create", Resource: describeStack(desc.Name), Err: err}
	}

	c.log.Info("submitted stack create", "name", desc.Name, "id", created.ID)
	return reconcile.Resource{ID: created.ID, Name: desc.Name}, nil
}

// Get - fetch the stack by name. A 404 is an authoritative NotFoundError,
// anything else a TransportError so the poll loop can tell an outage from
// deletion.
func (c *Client) Get(ctx context.Context, name string) (reconcile.Resource, error) {
	stack, err := stacks.Find(c.orchestration, name).Extract()
	if err != nil {
		return reconcile.Resource{}, translateLookupError(name, err)
	}

	return reconcile.Resource{
		ID:           stack.ID,
		Name:         stack.Name,
		Status:       stack.Status,
		StatusReason: stack.StatusReason,
	}, nil
}

// Delete - submit the delete call for an already-resolved stack. The caller
// supplies the ID from its own lookup; no extra fetch happens here.
func (c *Client) Delete(ctx context.Context, name, id string) error {
	if err := stacks.Delete(c.orchestration, name, id).ExtractErr(); err != nil {
		return &reconcile.SubmissionError{Op: "delete", Resource: describeStack(name), Err: err}
	}

	c.log.Info("submitted stack delete", "name", name, "id", id)
	return nil
}

// Outputs - the stack's outputs as a key/value map.
func (c *Client) Outputs(ctx context.Context, name string) (map[string]interface{}, error) {
	stack, err := stacks.Find(c.orchestration, name).Extract()
	if err != nil {
		return nil, translateLookupError(name, err)
	}

	// array of {output_key, output_value, description}
	outputs := make(map[string]interface{}, len(stack.Outputs))
	for _, entry := range stack.Outputs {
		key, ok := entry["output_key"].(string)
		if !ok {
			continue
		}
		outputs[key] = entry["output_value"]
	}
	return outputs, nil
}

func describeStack(name string) string {
	return fmt.Sprintf("stack %q", name)
}

func translateLookupError(name string, err error) error {
	var notFound gophercloud.ErrDefault404
	if errors.As(err, &notFound) {
		return &reconcile.NotFoundError{Resource: describeStack(name)}
	}
	return &reconcile.TransportError{Op: "fetching " + describeStack(name), Err: err}
}
