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

type serviceArgs struct {
	module.AuthArgs
	Name        string `json:"name"`
	ServiceType string `json:"service_type"`
	Description string `json:"description"`
	State       string `json:"state"`
}

func runModule(cmd *cobra.Command, args []string) {
	m := module.New(componentName)

	params := serviceArgs{State: "present", Description: "Not provided"}
	if err := m.ReadArgs(args[0], &params); err != nil {
		m.FailJSON(err)
	}
	if params.Name == "" || params.ServiceType == "" {
		m.FailJSON(errors.New("name and service_type are required"))
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

	client := keystone.NewServiceClient(identity, keystone.ServiceDescriptor{
		Name:        params.Name,
		Type:        params.ServiceType,
		Description: params.Description,
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
