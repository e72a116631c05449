package main

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/openstack-ansible-modules/os-cloud-modules/pkg/cloud"
	"github.com/openstack-ansible-modules/os-cloud-modules/pkg/heat"
	"github.com/openstack-ansible-modules/os-cloud-modules/pkg/module"
	"github.com/openstack-ansible-modules/os-cloud-modules/pkg/reconcile"
)

const (
	defaultWaitTimeoutSecs  = 3600
	defaultWaitIntervalSecs = 5
)

type stackArgs struct {
	module.AuthArgs
	StackName          string                 `json:"stack_name"`
	Action             string                 `json:"action"`
	Template           string                 `json:"template"`
	Environment        string                 `json:"environment"`
	TemplateParameters map[string]interface{} `json:"template_parameters"`
	Tags               []string               `json:"tags"`
	DisableRollback    bool                   `json:"disable_rollback"`
	TimeoutMins        int                    `json:"timeout_mins"`
	WaitTimeout        int                    `json:"wait_timeout"`
	WaitInterval       int                    `json:"wait_interval"`
	ExportOutputs      bool                   `json:"export_outputs"`
}

func runModule(cmd *cobra.Command, args []string) {
	m := module.New(componentName)

	params := stackArgs{WaitTimeout: defaultWaitTimeoutSecs, WaitInterval: defaultWaitIntervalSecs}
	if err := m.ReadArgs(args[0], &params); err != nil {
		m.FailJSON(err)
	}
	if params.StackName == "" {
		m.FailJSON(errors.New("stack_name is required"))
	}

	creds, err := params.Credentials()
	if err != nil {
		m.FailJSON(err)
	}

	// The deadline bounds the whole invocation, poll sleeps included.
	ctx, cancel := invocationContext(params.WaitTimeout)
	defer cancel()

	provider, err := cloud.NewProvider(ctx, creds)
	if err != nil {
		m.FailJSON(err)
	}
	orchestration, err := cloud.NewOrchestrationV1(provider, creds.Region)
	if err != nil {
		m.FailJSON(err)
	}

	client := heat.NewClient(orchestration, m.Log)
	poller := reconcile.NewPoller(client, m.Log)
	poller.Interval = time.Duration(params.WaitInterval) * time.Second

	switch params.Action {
	case "create":
		runCreate(ctx, m, client, poller, params)
	case "delete":
		runDelete(ctx, m, client, poller, params)
	default:
		m.FailJSON(errors.Errorf("invalid action %q", params.Action))
	}
}

// invocationContext - derive the invocation deadline from wait_timeout
// seconds. Zero means wait indefinitely, not an already-expired deadline.
func invocationContext(waitTimeoutSecs int) (context.Context, context.CancelFunc) {
	if waitTimeoutSecs <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), time.Duration(waitTimeoutSecs)*time.Second)
}

func runCreate(ctx context.Context, m *module.Module, client *heat.Client, poller *reconcile.Poller, params stackArgs) {
	if params.Template == "" {
		m.FailJSON(errors.New("template is required for action create"))
	}

	template, err := os.ReadFile(params.Template)
	if err != nil {
		m.FailJSON(errors.Wrap(err, "reading stack template"))
	}

	desc := heat.StackDescriptor{
		Name:        params.StackName,
		Template:    template,
		Parameters:  params.TemplateParameters,
		Tags:        params.Tags,
		TimeoutMins: params.TimeoutMins,
	}
	if m.HasArg("disable_rollback") {
		disable := params.DisableRollback
		desc.DisableRollback = &disable
	}
	if params.Environment != "" {
		environment, err := os.ReadFile(params.Environment)
		if err != nil {
			m.FailJSON(errors.Wrap(err, "reading stack environment"))
		}
		desc.Environment = environment
	}

	if m.CheckMode() {
		existing, err := client.Get(ctx, params.StackName)
		switch {
		case err == nil:
			m.ExitJSON(module.Result{Changed: false, ID: existing.ID, Msg: "Stack already exists"})
		case reconcile.IsNotFoundError(err):
			m.ExitJSON(module.Result{Changed: true})
		default:
			m.FailJSON(err)
		}
	}

	created, err := client.Create(ctx, desc)
	if err != nil {
		m.FailJSON(err)
	}

	outcome, err := poller.Await(ctx, params.StackName, reconcile.OperationCreate)
	if err != nil {
		m.FailJSON(err)
	}

	result := module.Result{Changed: outcome.Changed, ID: created.ID, Msg: outcome.Msg}
	if params.ExportOutputs {
		outputs, err := client.Outputs(ctx, params.StackName)
		if err != nil {
			m.FailJSON(err)
		}
		rendered, err := heat.ParameterDefaults(outputs)
		if err != nil {
			m.FailJSON(err)
		}
		result.Outputs = outputs
		result.ParameterDefaults = rendered
	}
	m.ExitJSON(result)
}

func runDelete(ctx context.Context, m *module.Module, client *heat.Client, poller *reconcile.Poller, params stackArgs) {
	existing, err := client.Get(ctx, params.StackName)
	if reconcile.IsNotFoundError(err) {
		m.ExitJSON(module.Result{Changed: false, Msg: "Stack not found"})
	}
	if err != nil {
		m.FailJSON(err)
	}

	if m.CheckMode() {
		m.ExitJSON(module.Result{Changed: true, ID: existing.ID})
	}

	if err := client.Delete(ctx, params.StackName, existing.ID); err != nil {
		m.FailJSON(err)
	}

	outcome, err := poller.Await(ctx, params.StackName, reconcile.OperationDelete)
	if err != nil {
		m.FailJSON(err)
	}
	m.ExitJSON(module.Result{Changed: outcome.Changed, Msg: outcome.Msg})
}
