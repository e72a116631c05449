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

// Package keystone adapts Identity v3 service and endpoint entries to the
// reconcile.Client contract.
package keystone

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/identity/v3/services"

	"github.com/openstack-ansible-modules/os-cloud-modules/pkg/reconcile"
)

// ServiceDescriptor - attributes identifying a Keystone service entry.
// Match is by name; type and description only shape the create call.
type ServiceDescriptor struct {
	Name        string
	Type        string
	Description string
}

// ServiceClient - reconcile.Client for Keystone service entries.
type ServiceClient struct {
	identity *gophercloud.ServiceClient
	desc     ServiceDescriptor
	log      logr.Logger
}

var _ reconcile.Client = (*ServiceClient)(nil)

// NewServiceClient -
func NewServiceClient(identity *gophercloud.ServiceClient, desc ServiceDescriptor, log logr.Logger) *ServiceClient {
	return &ServiceClient{identity: identity, desc: desc, log: log}
}

// Describe -
func (s *ServiceClient) Describe() string {
	return fmt.Sprintf("keystone service %q", s.desc.Name)
}

// List - all service entries whose name equals the descriptor's.
func (s *ServiceClient) List(ctx context.Context) ([]reconcile.Resource, error) {
	matches, err := listServicesByName(s.identity, s.desc.Name)
	if err != nil {
		return nil, err
	}

	resources := make([]reconcile.Resource, 0, len(matches))
	for _, svc := range matches {
		resources = append(resources, reconcile.Resource{ID: svc.ID, Name: serviceName(svc)})
	}
	return resources, nil
}

// Create -
func (s *ServiceClient) Create(ctx context.Context) (reconcile.Resource, error) {
	enabled := true
	svc, err := services.Create(s.identity, services.CreateOpts{
		Type:    s.desc.Type,
		Enabled: &enabled,
		Extra: map[string]interface{}{
			"name":        s.desc.Name,
			"description": s.desc.Description,
		},
	}).Extract()
	if err != nil {
		return reconcile.Resource{}, &reconcile.SubmissionError{Op: "create", Resource: s.Describe(), Err: err}
	}

	s.log.Info("created keystone service", "name", s.desc.Name, "id", svc.ID)
	return reconcile.Resource{ID: svc.ID, Name: s.desc.Name}, nil
}

// Delete -
func (s *ServiceClient) Delete(ctx context.Context, id string) error {
	if err := services.Delete(s.identity, id).ExtractErr(); err != nil {
		return &reconcile.SubmissionError{Op: "delete", Resource: s.Describe(), Err: err}
	}

	s.log.Info("deleted keystone service", "name", s.desc.Name, "id", id)
	return nil
}

// FindService - resolve a service entry by name. Zero matches is a
// NotFoundError, more than one an AmbiguousResourceError: Keystone is
// expected to keep service names unique, so multiples are surfaced rather
// than picked from.
func FindService(identity *gophercloud.ServiceClient, name string) (services.Service, error) {
	matches, err := listServicesByName(identity, name)
	if err != nil {
		return services.Service{}, err
	}

	switch len(matches) {
	case 0:
		return services.Service{}, &reconcile.NotFoundError{Resource: fmt.Sprintf("keystone service %q", name)}
	case 1:
		return matches[0], nil
	default:
		return services.Service{}, &reconcile.AmbiguousResourceError{
			Resource: fmt.Sprintf("keystone service %q", name),
			Matches:  len(matches),
		}
	}
}

func listServicesByName(identity *gophercloud.ServiceClient, name string) ([]services.Service, error) {
	allPages, err := services.List(identity, services.ListOpts{Name: name}).AllPages()
	if err != nil {
		return nil, &reconcile.TransportError{Op: "listing keystone services", Err: err}
	}
	all, err := services.ExtractServices(allPages)
	if err != nil {
		return nil, &reconcile.TransportError{Op: "decoding keystone service list", Err: err}
	}

	// Older keystone releases ignore the server-side name filter.
	matches := make([]services.Service, 0, len(all))
	for _, svc := range all {
		if serviceName(svc) == name {
			matches = append(matches, svc)
		}
	}
	return matches, nil
}

func serviceName(svc services.Service) string {
	if name, ok := svc.Extra["name"].(string); ok {
		return name
	}
	return ""
}
