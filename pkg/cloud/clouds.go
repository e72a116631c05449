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
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Minimal clouds.yaml reader, covering the fields the modules accept.
type cloudsFile struct {
	Clouds map[string]cloudEntry `yaml:"clouds"`
}

type cloudEntry struct {
	RegionName string    `yaml:"region_name"`
	Auth       cloudAuth `yaml:"auth"`
}

type cloudAuth struct {
	AuthURL        string `yaml:"auth_url"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	ProjectName    string `yaml:"project_name"`
	TenantName     string `yaml:"tenant_name"`
	UserDomainName string `yaml:"user_domain_name"`
}

// CloudsFromFile - read one named cloud from a clouds.yaml document.
func CloudsFromFile(path, name string) (Credentials, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, errors.Wrap(err, "reading clouds.yaml")
	}
	return cloudFromYAML(raw, name)
}

func cloudFromYAML(raw []byte, name string) (Credentials, error) {
	var doc cloudsFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Credentials{}, errors.Wrap(err, "parsing clouds.yaml")
	}

	entry, ok := doc.Clouds[name]
	if !ok {
		return Credentials{}, errors.Errorf("cloud %q not defined in clouds.yaml", name)
	}

	tenant := entry.Auth.ProjectName
	if tenant == "" {
		tenant = entry.Auth.TenantName
	}

	return Credentials{
		AuthURL:    entry.Auth.AuthURL,
		Username:   entry.Auth.Username,
		Password:   entry.Auth.Password,
		TenantName: tenant,
		DomainName: entry.Auth.UserDomainName,
		Region:     entry.RegionName,
	}, nil
}

// DefaultCloudsPaths - the standard search order for clouds.yaml.
func DefaultCloudsPaths() []string {
	paths := []string{"clouds.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "openstack", "clouds.yaml"))
	}
	return append(paths, "/etc/openstack/clouds.yaml")
}

// LookupCloud - find the named cloud in the standard clouds.yaml locations.
func LookupCloud(name string) (Credentials, error) {
	for _, path := range DefaultCloudsPaths() {
		creds, err := CloudsFromFile(path, name)
		if err == nil {
			return creds, nil
		}
		if !os.IsNotExist(errors.Cause(err)) {
			return Credentials{}, err
		}
	}
	return Credentials{}, errors.Errorf("cloud %q not found in any clouds.yaml", name)
}
