package deployconfig

import "github.com/tss-calculator/deploy/pkg/deploy/application/model"

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadEnvironment captures the declared variables and the credential blob
// once, so no later stage reads the process environment.
func LoadEnvironment(deployment model.Deployment, buildNumber string, lookup LookupFunc) model.Environment {
	values := make(map[string]string, len(deployment.Variables))
	for _, variable := range deployment.Variables {
		if value, ok := lookup(variable.Name); ok {
			values[variable.Name] = value
		}
	}
	credential, _ := lookup(deployment.Credential.EnvVar)
	return model.Environment{
		BuildNumber: buildNumber,
		Credential:  credential,
		Values:      values,
	}
}
