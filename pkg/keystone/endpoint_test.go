package keystone

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-logr/logr"
	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/identity/v3/endpoints"
	. "github.com/onsi/gomega"

	"github.com/openstack-ansible-modules/os-cloud-modules/pkg/reconcile"
)

const glanceServices = `{"services": [{"id": "svc-1", "type": "image", "name": "glance"}]}`

// Identity API fixture with the glance service and its endpoint records in
// two regions, region one carrying public+internal+admin, region two only a
// public record.
func identityFixture(t *testing.T, g Gomega) (*httptest.Server, *[]string) {
	t.Helper()
	var deletes []string

	mux := http.NewServeMux()
	mux.HandleFunc("/services", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, glanceServices)
	})
	mux.HandleFunc("/endpoints", func(w http.ResponseWriter, r *http.Request) {
		g.Expect(r.URL.Query().Get("service_id")).To(Equal("svc-1"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"endpoints": [
				{"id": "ep-pub", "interface": "public", "name": "glance", "region": "regionOne", "service_id": "svc-1", "url": "https://glance.example.com/"},
				{"id": "ep-int", "interface": "internal", "name": "glance", "region": "regionOne", "service_id": "svc-1", "url": "http://glance.internal:9292/"},
				{"id": "ep-adm", "interface": "admin", "name": "glance", "region": "regionOne", "service_id": "svc-1", "url": "https://glance.example.com/"},
				{"id": "ep-two", "interface": "public", "name": "glance", "region": "regionTwo", "service_id": "svc-1", "url": "https://glance.two.example.com/"}
			]
		}`)
	})
	mux.HandleFunc("/endpoints/", func(w http.ResponseWriter, r *http.Request) {
		g.Expect(r.Method).To(Equal(http.MethodDelete))
		deletes = append(deletes, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	return httptest.NewServer(mux), &deletes
}

func fullTripleDescriptor() EndpointDescriptor {
	return EndpointDescriptor{
		ServiceName: "glance",
		Region:      "regionOne",
		PublicURL:   "https://glance.example.com/",
		InternalURL: "http://glance.internal:9292/",
		AdminURL:    "https://glance.example.com/",
	}
}

func TestEndpointClientListMatchesTriple(t *testing.T) {
	g := NewWithT(t)
	server, _ := identityFixture(t, g)
	defer server.Close()

	client := NewEndpointClient(testIdentityClient(server.URL), fullTripleDescriptor(), logr.Discard())

	matches, err := client.List(context.Background())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(matches).To(HaveLen(1))
	g.Expect(matches[0].ID).To(Equal("ep-pub"))
}

func TestEndpointClientListConjunctiveFilter(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*EndpointDescriptor)
	}{
		{"region mismatch", func(d *EndpointDescriptor) { d.Region = "regionThree" }},
		{"public url mismatch", func(d *EndpointDescriptor) { d.PublicURL = "https://other.example.com/" }},
		{"missing internal url must not fuzzy-match", func(d *EndpointDescriptor) { d.InternalURL = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			server, _ := identityFixture(t, g)
			defer server.Close()

			desc := fullTripleDescriptor()
			tt.mutate(&desc)
			client := NewEndpointClient(testIdentityClient(server.URL), desc, logr.Discard())

			matches, err := client.List(context.Background())
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(matches).To(BeEmpty())
		})
	}
}

func TestEndpointClientListMatchesPublicOnlyGroup(t *testing.T) {
	g := NewWithT(t)
	server, _ := identityFixture(t, g)
	defer server.Close()

	desc := EndpointDescriptor{
		ServiceName: "glance",
		Region:      "regionTwo",
		PublicURL:   "https://glance.two.example.com/",
	}
	client := NewEndpointClient(testIdentityClient(server.URL), desc, logr.Discard())

	matches, err := client.List(context.Background())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(matches).To(HaveLen(1))
	g.Expect(matches[0].ID).To(Equal("ep-two"))
}

func TestEndpointClientDeleteRemovesWholeGroup(t *testing.T) {
	g := NewWithT(t)
	server, deletes := identityFixture(t, g)
	defer server.Close()

	client := NewEndpointClient(testIdentityClient(server.URL), fullTripleDescriptor(), logr.Discard())

	matches, err := client.List(context.Background())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(matches).To(HaveLen(1))

	g.Expect(client.Delete(context.Background(), matches[0].ID)).To(Succeed())
	g.Expect(*deletes).To(ConsistOf("/endpoints/ep-pub", "/endpoints/ep-int", "/endpoints/ep-adm"))
}

func TestEndpointClientCreate(t *testing.T) {
	g := NewWithT(t)

	var created []string
	mux := http.NewServeMux()
	mux.HandleFunc("/services", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, glanceServices)
	})
	mux.HandleFunc("/endpoints", func(w http.ResponseWriter, r *http.Request) {
		g.Expect(r.Method).To(Equal(http.MethodPost))
		id := fmt.Sprintf("ep-%d", len(created)+1)
		created = append(created, id)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"endpoint": {"id": %q, "interface": "public", "name": "glance", "region": "regionOne", "service_id": "svc-1", "url": "https://glance.example.com/"}}`, id)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	desc := EndpointDescriptor{
		ServiceName: "glance",
		Region:      "regionOne",
		PublicURL:   "https://glance.example.com/",
		InternalURL: "http://glance.internal:9292/",
	}
	client := NewEndpointClient(testIdentityClient(server.URL), desc, logr.Discard())

	resource, err := client.Create(context.Background())
	g.Expect(err).NotTo(HaveOccurred())
	// one record per supplied URL, public first
	g.Expect(created).To(HaveLen(2))
	g.Expect(resource.ID).To(Equal("ep-1"))
}

func TestEndpointClientListDuplicateRecords(t *testing.T) {
	g := NewWithT(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/services", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, glanceServices)
	})
	mux.HandleFunc("/endpoints", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"endpoints": [
				{"id": "dup-1", "interface": "public", "name": "glance", "region": "regionOne", "service_id": "svc-1", "url": "https://glance.example.com/"},
				{"id": "dup-2", "interface": "public", "name": "glance", "region": "regionOne", "service_id": "svc-1", "url": "https://glance.example.com/"}
			]
		}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	desc := EndpointDescriptor{
		ServiceName: "glance",
		Region:      "regionOne",
		PublicURL:   "https://glance.example.com/",
	}
	client := NewEndpointClient(testIdentityClient(server.URL), desc, logr.Discard())

	// duplicate records for one interface must surface as an ambiguity,
	// never as a single silently-picked match
	_, err := client.List(context.Background())
	g.Expect(reconcile.IsAmbiguousResourceError(err)).To(BeTrue())

	var ambiguous *reconcile.AmbiguousResourceError
	g.Expect(errors.As(err, &ambiguous)).To(BeTrue())
	g.Expect(ambiguous.Matches).To(Equal(2))
}

func TestEndpointClientUnknownService(t *testing.T) {
	g := NewWithT(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"services": []}`)
	}))
	defer server.Close()

	client := NewEndpointClient(testIdentityClient(server.URL), fullTripleDescriptor(), logr.Discard())

	_, err := client.List(context.Background())
	g.Expect(reconcile.IsNotFoundError(err)).To(BeTrue())
}

func TestGroupByRegion(t *testing.T) {
	g := NewWithT(t)

	records := []endpoints.Endpoint{
		{ID: "a", Region: "r1", Availability: gophercloud.AvailabilityPublic, URL: "u1"},
		{ID: "b", Region: "r2", Availability: gophercloud.AvailabilityPublic, URL: "u2"},
		{ID: "c", Region: "r1", Availability: gophercloud.AvailabilityInternal, URL: "u3"},
	}

	groups := groupByRegion(records)
	g.Expect(groups).To(HaveLen(2))
	g.Expect(groups[0].region).To(Equal("r1"))
	g.Expect(groups[0].identifier()).To(Equal("a"))
	g.Expect(groups[0].memberIDs()).To(Equal([]string{"a", "c"}))
	g.Expect(groups[0].duplicates()).To(Equal(1))
	g.Expect(groups[1].region).To(Equal("r2"))
	g.Expect(groups[1].memberIDs()).To(Equal([]string{"b"}))
}

func TestGroupByRegionRetainsDuplicateRecords(t *testing.T) {
	g := NewWithT(t)

	records := []endpoints.Endpoint{
		{ID: "dup-1", Region: "r1", Availability: gophercloud.AvailabilityPublic, URL: "u1"},
		{ID: "dup-2", Region: "r1", Availability: gophercloud.AvailabilityPublic, URL: "u1"},
	}

	groups := groupByRegion(records)
	g.Expect(groups).To(HaveLen(1))
	g.Expect(groups[0].duplicates()).To(Equal(2))
	g.Expect(groups[0].memberIDs()).To(Equal([]string{"dup-1", "dup-2"}))
}
