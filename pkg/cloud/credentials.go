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

// Package cloud turns caller-supplied credentials into authenticated
// gophercloud service clients. Credentials are an explicit value: nothing in
// this package reads the process environment on its own, the OS_* fallback
// only runs when the caller asks for it.
package cloud

import (
	"fmt"
	"os"
	"strings"

	"github.com/openstack-ansible-modules/os-cloud-modules/pkg/reconcile"
)

// Credentials - everything needed to obtain a scoped token.
type Credentials struct {
	AuthURL    string
	Username   string
	Password   string
	TenantName string
	DomainName string
	Region     string
}

// Merge - fill blank fields from another credential set.
func (c *Credentials) Merge(other Credentials) {
	fill(&c.AuthURL, other.AuthURL)
	fill(&c.Username, other.Username)
	fill(&c.Password, other.Password)
	fill(&c.TenantName, other.TenantName)
	fill(&c.DomainName, other.DomainName)
	fill(&c.Region, other.Region)
}

// ApplyEnv - fill blank fields from the conventional OS_* variables.
func (c *Credentials) ApplyEnv() {
	fill(&c.AuthURL, os.Getenv("OS_AUTH_URL"))
	fill(&c.Username, os.Getenv("OS_USERNAME"))
	fill(&c.Password, os.Getenv("OS_PASSWORD"))
	fill(&c.TenantName, os.Getenv("OS_TENANT_NAME"))
	fill(&c.TenantName, os.Getenv("OS_PROJECT_NAME"))
	fill(&c.DomainName, os.Getenv("OS_USER_DOMAIN_NAME"))
	fill(&c.Region, os.Getenv("OS_REGION_NAME"))
}

// Validate - every credential required for the token exchange must be set
// before any resource work begins.
func (c Credentials) Validate() error {
	var missing []string
	if c.AuthURL == "" {
		missing = append(missing, "auth_url")
	}
	if c.Username == "" {
		missing = append(missing, "username")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if c.TenantName == "" {
		missing = append(missing, "tenant_name")
	}
	if len(missing) > 0 {
		return &reconcile.AuthenticationError{
			Reason: fmt.Sprintf("missing credentials: %s", strings.Join(missing, ", ")),
		}
	}
	return nil
}

func fill(target *string, value string) {
	if *target == "" {
		*target = value
	}
}
