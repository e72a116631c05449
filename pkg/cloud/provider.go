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

package cloud

import (
	"context"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack"

	"github.com/openstack-ansible-modules/os-cloud-modules/pkg/reconcile"
)

// NewProvider - exchange credentials for an authenticated provider client.
// The context is attached to the provider so every request it issues can be
// cancelled by the caller.
func NewProvider(ctx context.Context, creds Credentials) (*gophercloud.ProviderClient, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	provider, err := openstack.NewClient(creds.AuthURL)
	if err != nil {
		return nil, &reconcile.AuthenticationError{Reason: "building identity client", Err: err}
	}
	provider.Context = ctx

	opts := gophercloud.AuthOptions{
		IdentityEndpoint: creds.AuthURL,
		Username:         creds.Username,
		Password:         creds.Password,
		TenantName:       creds.TenantName,
		DomainName:       creds.DomainName,
	}
	if err := openstack.Authenticate(provider, opts); err != nil {
		return nil, &reconcile.AuthenticationError{Reason: "token exchange", Err: err}
	}

	return provider, nil
}

// NewIdentityV3 - locate the identity endpoint in the catalog.
func NewIdentityV3(provider *gophercloud.ProviderClient, region string) (*gophercloud.ServiceClient, error) {
	client, err := openstack.NewIdentityV3(provider, gophercloud.EndpointOpts{Region: region})
	if err != nil {
		return nil, &reconcile.AuthenticationError{Reason: "locating identity endpoint", Err: err}
	}
	return client, nil
}

// NewOrchestrationV1 - locate the orchestration endpoint in the catalog.
func NewOrchestrationV1(provider *gophercloud.ProviderClient, region string) (*gophercloud.ServiceClient, error) {
	client, err := openstack.NewOrchestrationV1(provider, gophercloud.EndpointOpts{Region: region})
	if err != nil {
		return nil, &reconcile.AuthenticationError{Reason: "locating orchestration endpoint", Err: err}
	}
	return client, nil
}
