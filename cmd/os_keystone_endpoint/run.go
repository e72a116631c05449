package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/openstack-ansible-modules/os-cloud-modules/pkg/cloud"
	"github.com/openstack-ansible-modules/os-cloud-modules/pkg/keystone"
	"github.com/openstack-ansible-modules/os-cloud-modules/pkg/module"
	"github.com/openstack-ansible-modules/os-cloud-modules/pkg/reconcile"
)

type endpointArgs struct {
	module.AuthArgs
	ServiceName    string `json:"service_name"`
	EndpointRegion string `json:"region"`
	PublicURL      string `json:"public_url"`
	InternalURL    string `json:"internal_url"`
	AdminURL       string `json:"admin_url"`
	State          string `json:"state"`
}

func runModule(cmd *cobra.Command, args []string) {
	m := module.New(componentName)

	params := endpointArgs{State: "present"}
	if err := m.ReadArgs(args[0], &params); err != nil {
		m.FailJSON(err)
	}
	if params.ServiceName == "" || params.PublicURL == "" {
		m.FailJSON(errors.New("service_name and public_url are required"))
	}

	creds, err := params.Credentials()
	if err != nil {
		m.FailJSON(err)
	}

	ctx := context.Background()
	provider, err := cloud.NewProvider(ctx, creds)
	if err != nil {
		m.FailJSON(err)
	}
	identity, err := cloud.NewIdentityV3(provider, creds.Region)
	if err != nil {
		m.FailJSON(err)
	}

	client := keystone.NewEndpointClient(identity, keystone.EndpointDescriptor{
		ServiceName: params.ServiceName,
		Region:      params.EndpointRegion,
		PublicURL:   params.PublicURL,
		InternalURL: params.InternalURL,
		AdminURL:    params.AdminURL,
	}, m.Log)

	var outcome reconcile.Outcome
	switch params.State {
	case "present":
		outcome, err = reconcile.EnsurePresent(ctx, client, m.CheckMode())
	case "absent":
		outcome, err = reconcile.EnsureAbsent(ctx, client, m.CheckMode())
	default:
		m.FailJSON(errors.Errorf("invalid state %q", params.State))
	}
	if err != nil {
		m.FailJSON(err)
	}

	m.ExitJSON(module.Result{Changed: outcome.Changed, ID: outcome.ID, Msg: outcome.Msg})
}
