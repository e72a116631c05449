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

package keystone

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/identity/v3/endpoints"
	"github.com/pkg/errors"

	"github.com/openstack-ansible-modules/os-cloud-modules/pkg/reconcile"
)

// EndpointDescriptor - the logical endpoint the modules manage: one service,
// one region, up to three interface URLs. The v3 catalog stores one record
// per interface; this package speaks the grouped form.
type EndpointDescriptor struct {
	ServiceName string
	Region      string
	PublicURL   string
	InternalURL string
	AdminURL    string
}

var interfaceOrder = []gophercloud.Availability{
	gophercloud.AvailabilityPublic,
	gophercloud.AvailabilityInternal,
	gophercloud.AvailabilityAdmin,
}

// endpointGroup - the v3 records for one service+region, keyed by interface.
// Keystone v3 does not enforce endpoint uniqueness, so one interface can
// carry several records; every ID is retained so duplicates stay visible.
type endpointGroup struct {
	region string
	urls   map[gophercloud.Availability]string
	ids    map[gophercloud.Availability][]string
}

func newEndpointGroup(region string) *endpointGroup {
	return &endpointGroup{
		region: region,
		urls:   map[gophercloud.Availability]string{},
		ids:    map[gophercloud.Availability][]string{},
	}
}

// identifier - the public record's ID, falling back to the first interface
// present.
func (g *endpointGroup) identifier() string {
	for _, iface := range interfaceOrder {
		if ids := g.ids[iface]; len(ids) > 0 {
			return ids[0]
		}
	}
	return ""
}

func (g *endpointGroup) memberIDs() []string {
	var ids []string
	for _, iface := range interfaceOrder {
		ids = append(ids, g.ids[iface]...)
	}
	return ids
}

// duplicates - the record count of the most duplicated interface. A group
// holding more than one record for the same interface cannot be represented
// as a single logical endpoint and must never be silently picked from.
func (g *endpointGroup) duplicates() int {
	most := 0
	for _, ids := range g.ids {
		if len(ids) > most {
			most = len(ids)
		}
	}
	return most
}

// EndpointClient - reconcile.Client for grouped Keystone endpoint entries.
type EndpointClient struct {
	identity  *gophercloud.ServiceClient
	desc      EndpointDescriptor
	log       logr.Logger
	serviceID string
	// group id -> member endpoint record ids, filled during List so Delete
	// can remove the whole group.
	members map[string][]string
}

var _ reconcile.Client = (*EndpointClient)(nil)

// NewEndpointClient -
func NewEndpointClient(identity *gophercloud.ServiceClient, desc EndpointDescriptor, log logr.Logger) *EndpointClient {
	return &EndpointClient{
		identity: identity,
		desc:     desc,
		log:      log,
		members:  map[string][]string{},
	}
}

// Describe -
func (e *EndpointClient) Describe() string {
	return fmt.Sprintf("keystone endpoint for service %q in region %q", e.desc.ServiceName, e.desc.Region)
}

func (e *EndpointClient) resolveServiceID() (string, error) {
	if e.serviceID != "" {
		return e.serviceID, nil
	}
	svc, err := FindService(e.identity, e.desc.ServiceName)
	if err != nil {
		return "", err
	}
	e.serviceID = svc.ID
	return e.serviceID, nil
}

// List - endpoint groups of the descriptor's service matching every supplied
// descriptor field.
func (e *EndpointClient) List(ctx context.Context) ([]reconcile.Resource, error) {
	serviceID, err := e.resolveServiceID()
	if err != nil {
		return nil, err
	}

	allPages, err := endpoints.List(e.identity, endpoints.ListOpts{ServiceID: serviceID}).AllPages()
	if err != nil {
		return nil, &reconcile.TransportError{Op: "listing keystone endpoints", Err: err}
	}
	records, err := endpoints.ExtractEndpoints(allPages)
	if err != nil {
		return nil, &reconcile.TransportError{Op: "decoding keystone endpoint list", Err: err}
	}

	var matches []reconcile.Resource
	for _, group := range groupByRegion(records) {
		if group.region != e.desc.Region {
			continue
		}
		if n := group.duplicates(); n > 1 {
			return nil, &reconcile.AmbiguousResourceError{Resource: e.Describe(), Matches: n}
		}
		if !e.matches(group) {
			continue
		}
		id := group.identifier()
		e.members[id] = group.memberIDs()
		matches = append(matches, reconcile.Resource{ID: id, Name: e.desc.ServiceName})
	}
	return matches, nil
}

// Create - one v3 record per supplied URL, in interface order so the
// reported identifier is the public record's ID.
func (e *EndpointClient) Create(ctx context.Context) (reconcile.Resource, error) {
	serviceID, err := e.resolveServiceID()
	if err != nil {
		return reconcile.Resource{}, err
	}

	var created []string
	for _, iface := range interfaceOrder {
		url := e.descriptorURL(iface)
		if url == "" {
			continue
		}
		record, err := endpoints.Create(e.identity, endpoints.CreateOpts{
			Availability: iface,
			Name:         e.desc.ServiceName,
			Region:       e.desc.Region,
			ServiceID:    serviceID,
			URL:          url,
		}).Extract()
		if err != nil {
			return reconcile.Resource{}, &reconcile.SubmissionError{Op: "create", Resource: e.Describe(), Err: err}
		}
		created = append(created, record.ID)
	}

	if len(created) == 0 {
		return reconcile.Resource{}, &reconcile.SubmissionError{
			Op:       "create",
			Resource: e.Describe(),
			Err:      errors.New("no endpoint URLs supplied"),
		}
	}

	id := created[0]
	e.members[id] = created
	e.log.Info("created keystone endpoint group", "service", e.desc.ServiceName, "region", e.desc.Region, "id", id, "records", len(created))
	return reconcile.Resource{ID: id, Name: e.desc.ServiceName}, nil
}

// Delete - remove every record of the group the identifier belongs to.
func (e *EndpointClient) Delete(ctx context.Context, id string) error {
	ids := e.members[id]
	if len(ids) == 0 {
		ids = []string{id}
	}

	for _, memberID := range ids {
		if err := endpoints.Delete(e.identity, memberID).ExtractErr(); err != nil {
			return &reconcile.SubmissionError{Op: "delete", Resource: e.Describe(), Err: err}
		}
	}

	e.log.Info("deleted keystone endpoint group", "service", e.desc.ServiceName, "region", e.desc.Region, "id", id, "records", len(ids))
	return nil
}

// matches - conjunctive equality over every descriptor field. An empty
// descriptor URL only matches a group with no record for that interface.
func (e *EndpointClient) matches(g *endpointGroup) bool {
	if g.region != e.desc.Region {
		return false
	}
	for _, iface := range interfaceOrder {
		if g.urls[iface] != e.descriptorURL(iface) {
			return false
		}
	}
	return true
}

func (e *EndpointClient) descriptorURL(iface gophercloud.Availability) string {
	switch iface {
	case gophercloud.AvailabilityPublic:
		return e.desc.PublicURL
	case gophercloud.AvailabilityInternal:
		return e.desc.InternalURL
	case gophercloud.AvailabilityAdmin:
		return e.desc.AdminURL
	}
	return ""
}

func groupByRegion(records []endpoints.Endpoint) []*endpointGroup {
	byRegion := map[string]*endpointGroup{}
	var order []string

	for _, record := range records {
		group, ok := byRegion[record.Region]
		if !ok {
			group = newEndpointGroup(record.Region)
			byRegion[record.Region] = group
			order = append(order, record.Region)
		}
		group.urls[record.Availability] = record.URL
		group.ids[record.Availability] = append(group.ids[record.Availability], record.ID)
	}

	groups := make([]*endpointGroup, 0, len(order))
	for _, region := range order {
		groups = append(groups, byRegion[region])
	}
	return groups
}
