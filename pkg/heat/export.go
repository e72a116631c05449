package heat

import (
	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
)

// ParameterDefaults - render stack outputs as a parameter_defaults YAML
// document, the form later deployment stages feed back into their own
// stacks.
func ParameterDefaults(outputs map[string]interface{}) (string, error) {
	doc := map[string]interface{}{"parameter_defaults": outputs}

	raw, err := yaml.Marshal(doc)
	if err != nil {
		return "", errors.Wrap(err, "marshalling stack outputs")
	}
	return string(raw), nil
}
