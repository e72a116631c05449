package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type pollStep struct {
	res Resource
	err error
}

type scriptedClient struct {
	steps []pollStep
	calls int
}

func (s *scriptedClient) Get(ctx context.Context, name string) (Resource, error) {
	step := s.steps[len(s.steps)-1]
	if s.calls < len(s.steps) {
		step = s.steps[s.calls]
	}
	s.calls++
	return step.res, step.err
}

func status(st string) pollStep {
	return pollStep{res: Resource{ID: "stack-id", Name: "teststack", Status: st, StatusReason: "reason"}}
}

var _ = Describe("Poller", func() {
	var (
		client *scriptedClient
		poller *Poller
		sleeps int
	)

	newPoller := func(steps ...pollStep) {
		client = &scriptedClient{steps: steps}
		poller = NewPoller(client, logr.Discard())
		sleeps = 0
		poller.sleep = func(ctx context.Context, d time.Duration) error {
			sleeps++
			return ctx.Err()
		}
	}

	It("polls until the operation completes", func() {
		newPoller(status("CREATE_IN_PROGRESS"), status("CREATE_IN_PROGRESS"), status("CREATE_COMPLETE"))

		outcome, err := poller.Await(context.Background(), "teststack", OperationCreate)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Changed).To(BeTrue())
		Expect(outcome.ID).To(Equal("stack-id"))
		Expect(outcome.Msg).To(Equal("Stack CREATE complete"))
		Expect(sleeps).To(Equal(2))
	})

	It("fails immediately on a FAILED status", func() {
		newPoller(status("CREATE_FAILED"))

		_, err := poller.Await(context.Background(), "teststack", OperationCreate)
		Expect(IsOperationFailedError(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("CREATE_FAILED"))
		Expect(sleeps).To(BeZero())
		Expect(client.calls).To(Equal(1))
	})

	It("fails on rollback statuses", func() {
		newPoller(status("ROLLBACK_COMPLETE"))

		_, err := poller.Await(context.Background(), "teststack", OperationCreate)
		Expect(IsOperationFailedError(err)).To(BeTrue())
	})

	It("treats not-found as success for DELETE", func() {
		newPoller(pollStep{err: &NotFoundError{Resource: "stack"}})

		outcome, err := poller.Await(context.Background(), "teststack", OperationDelete)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Changed).To(BeTrue())
		Expect(outcome.Msg).To(Equal("Stack Deleted"))
	})

	It("treats not-found as failure for CREATE", func() {
		newPoller(pollStep{err: &NotFoundError{Resource: "stack"}})

		_, err := poller.Await(context.Background(), "teststack", OperationCreate)
		Expect(IsOperationFailedError(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("Stack Not Found"))
	})

	It("retries transport errors within the budget", func() {
		transport := pollStep{err: &TransportError{Op: "fetching stack", Err: fmt.Errorf("connection reset")}}
		newPoller(transport, transport, status("CREATE_COMPLETE"))

		outcome, err := poller.Await(context.Background(), "teststack", OperationCreate)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Changed).To(BeTrue())
		Expect(sleeps).To(Equal(2))
	})

	It("aborts once consecutive transport failures exhaust the budget", func() {
		transport := pollStep{err: &TransportError{Op: "fetching stack", Err: fmt.Errorf("connection reset")}}
		newPoller(transport)
		poller.TransportRetries = 2

		_, err := poller.Await(context.Background(), "teststack", OperationCreate)
		Expect(IsTransportError(err)).To(BeTrue())
		Expect(client.calls).To(Equal(3))
	})

	It("stops when the context is cancelled", func() {
		newPoller(status("CREATE_IN_PROGRESS"))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := poller.Await(ctx, "teststack", OperationCreate)
		Expect(err).To(MatchError(context.Canceled))
	})
})
