package module

import (
	"github.com/openstack-ansible-modules/os-cloud-modules/pkg/cloud"
)

// AuthArgs - credential parameters shared by every module. Blank fields fall
// back to the named clouds.yaml entry, then to the OS_* environment.
type AuthArgs struct {
	Cloud      string `json:"cloud"`
	AuthURL    string `json:"auth_url"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	TenantName string `json:"tenant_name"`
	DomainName string `json:"domain_name"`
	Region     string `json:"region_name"`
}

// Credentials - resolve the final credential set for this invocation.
func (a AuthArgs) Credentials() (cloud.Credentials, error) {
	creds := cloud.Credentials{
		AuthURL:    a.AuthURL,
		Username:   a.Username,
		Password:   a.Password,
		TenantName: a.TenantName,
		DomainName: a.DomainName,
		Region:     a.Region,
	}

	if a.Cloud != "" {
		fromFile, err := cloud.LookupCloud(a.Cloud)
		if err != nil {
			return cloud.Credentials{}, err
		}
		creds.Merge(fromFile)
	}

	creds.ApplyEnv()
	return creds, nil
}
