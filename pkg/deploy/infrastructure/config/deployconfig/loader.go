package deployconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/tss-calculator/deploy/pkg/deploy/application/model"
)

const (
	defaultRegistry      = "gcr.io"
	defaultCredentialEnv = "GCLOUD_SERVICE_KEY"
	defaultCredentialKey = "gcloud-service-key.json"
	defaultNamespace     = "default"
	defaultFieldManager  = "deploy"
	defaultApplyTimeout  = 5 * time.Minute
	defaultPushAttempts  = 3
	defaultPushDelay     = 2 * time.Second
)

var variableName = regexp.MustCompile(`^[A-Z0-9_]+$`)

type Assets struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

type Component struct {
	Name       string  `json:"name" yaml:"name"`
	Context    string  `json:"context" yaml:"context"`
	Dockerfile string  `json:"dockerfile,omitempty" yaml:"dockerfile,omitempty"`
	Assets     *Assets `json:"assets,omitempty" yaml:"assets,omitempty"`
}

type Variable struct {
	Name     string `json:"name" yaml:"name"`
	Optional bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
}

type Credential struct {
	Env  string `json:"env,omitempty" yaml:"env,omitempty"`
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

type Cluster struct {
	Zone string `json:"zone,omitempty" yaml:"zone,omitempty"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

type Apply struct {
	Mode         string `json:"mode,omitempty" yaml:"mode,omitempty"`
	Namespace    string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	FieldManager string `json:"fieldManager,omitempty" yaml:"fieldManager,omitempty"`
	Wait         bool   `json:"wait,omitempty" yaml:"wait,omitempty"`
	Timeout      string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

type Push struct {
	Attempts  int    `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	Delay     string `json:"delay,omitempty" yaml:"delay,omitempty"`
	Verify    *bool  `json:"verify,omitempty" yaml:"verify,omitempty"`
	PlainHTTP bool   `json:"plainHTTP,omitempty" yaml:"plainHTTP,omitempty"`
}

type Tools struct {
	Gcloud  string `json:"gcloud,omitempty" yaml:"gcloud,omitempty"`
	Docker  string `json:"docker,omitempty" yaml:"docker,omitempty"`
	Kubectl string `json:"kubectl,omitempty" yaml:"kubectl,omitempty"`
}

type Config struct {
	Registry   string      `json:"registry,omitempty" yaml:"registry,omitempty"`
	Project    string      `json:"project,omitempty" yaml:"project,omitempty"`
	Components []Component `json:"components" yaml:"components"`
	Manifest   string      `json:"manifest" yaml:"manifest"`
	Templates  []string    `json:"templates,omitempty" yaml:"templates,omitempty"`
	OutputDir  string      `json:"outputDir,omitempty" yaml:"outputDir,omitempty"`
	Variables  []Variable  `json:"variables" yaml:"variables"`
	Credential Credential  `json:"credential,omitempty" yaml:"credential,omitempty"`
	Cluster    Cluster     `json:"cluster,omitempty" yaml:"cluster,omitempty"`
	Apply      Apply       `json:"apply,omitempty" yaml:"apply,omitempty"`
	Push       Push        `json:"push,omitempty" yaml:"push,omitempty"`
	Tools      Tools       `json:"tools,omitempty" yaml:"tools,omitempty"`
}

// Load reads a JSON or YAML (by extension) deployment config.
func Load(filePath string) (model.Deployment, error) {
	configBody, err := os.ReadFile(filePath)
	if err != nil {
		return model.Deployment{}, errors.Wrapf(err, "failed to read config file: %v", filePath)
	}
	var config Config
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(configBody, &config)
	default:
		err = json.Unmarshal(configBody, &config)
	}
	if err != nil {
		return model.Deployment{}, errors.Wrapf(err, "failed to unmarshal config %v", filePath)
	}
	return MapToDeployment(config)
}

func MapToDeployment(config Config) (model.Deployment, error) {
	err := assertConfig(config)
	if err != nil {
		return model.Deployment{}, err
	}
	applyTimeout, err := parseDuration(config.Apply.Timeout, defaultApplyTimeout)
	if err != nil {
		return model.Deployment{}, errors.Wrap(err, "invalid apply timeout")
	}
	pushDelay, err := parseDuration(config.Push.Delay, defaultPushDelay)
	if err != nil {
		return model.Deployment{}, errors.Wrap(err, "invalid push delay")
	}

	components := make([]model.Component, 0, len(config.Components))
	for _, component := range config.Components {
		var assets *model.Assets
		if component.Assets != nil {
			assets = &model.Assets{From: component.Assets.From, To: component.Assets.To}
		}
		components = append(components, model.Component{
			Name:       component.Name,
			Context:    component.Context,
			Dockerfile: component.Dockerfile,
			Assets:     assets,
		})
	}
	variables := make([]model.Variable, 0, len(config.Variables))
	for _, variable := range config.Variables {
		variables = append(variables, model.Variable{Name: variable.Name, Optional: variable.Optional})
	}

	return model.Deployment{
		Registry:   orDefault(config.Registry, defaultRegistry),
		Project:    config.Project,
		Components: components,
		Manifest:   config.Manifest,
		Templates:  config.Templates,
		OutputDir:  config.OutputDir,
		Variables:  variables,
		Credential: model.Credential{
			EnvVar: orDefault(config.Credential.Env, defaultCredentialEnv),
			Path:   orDefault(os.ExpandEnv(config.Credential.Path), defaultCredentialPath()),
		},
		Cluster: model.Cluster{
			Project: config.Project,
			Zone:    config.Cluster.Zone,
			Name:    config.Cluster.Name,
		},
		Apply: model.Apply{
			Mode:         model.ApplyMode(orDefault(config.Apply.Mode, string(model.ApplyModeKubectl))),
			Namespace:    orDefault(config.Apply.Namespace, defaultNamespace),
			FieldManager: orDefault(config.Apply.FieldManager, defaultFieldManager),
			Wait:         config.Apply.Wait,
			Timeout:      applyTimeout,
		},
		Push: model.Push{
			Attempts:  orDefaultInt(config.Push.Attempts, defaultPushAttempts),
			Delay:     pushDelay,
			Verify:    config.Push.Verify == nil || *config.Push.Verify,
			PlainHTTP: config.Push.PlainHTTP,
		},
		Tools: model.Tools{
			Gcloud:  orDefault(config.Tools.Gcloud, "gcloud"),
			Docker:  orDefault(config.Tools.Docker, "docker"),
			Kubectl: orDefault(config.Tools.Kubectl, "kubectl"),
		},
	}, nil
}

func assertConfig(config Config) error {
	if len(config.Components) == 0 {
		return errors.New("no components configured")
	}
	names := make(map[string]struct{}, len(config.Components))
	for _, component := range config.Components {
		if component.Name == "" || component.Context == "" {
			return fmt.Errorf("component %q must have name and context", component.Name)
		}
		if _, ok := names[component.Name]; ok {
			return fmt.Errorf("duplicate component %v", component.Name)
		}
		names[component.Name] = struct{}{}
		if component.Assets != nil && (component.Assets.From == "" || component.Assets.To == "") {
			return fmt.Errorf("assets of component %v must have from and to", component.Name)
		}
	}
	if config.Manifest == "" {
		return errors.New("manifest not configured")
	}
	variables := make(map[string]struct{}, len(config.Variables))
	for _, variable := range config.Variables {
		if !variableName.MatchString(variable.Name) {
			return fmt.Errorf("variable name %q must match %v", variable.Name, variableName.String())
		}
		if slices.Contains(model.BuiltinVariables(), variable.Name) {
			return fmt.Errorf("variable %v is reserved", variable.Name)
		}
		if _, ok := variables[variable.Name]; ok {
			return fmt.Errorf("duplicate variable %v", variable.Name)
		}
		variables[variable.Name] = struct{}{}
	}
	switch model.ApplyMode(config.Apply.Mode) {
	case "", model.ApplyModeKubectl, model.ApplyModeServerSide:
	default:
		return fmt.Errorf("unknown apply mode %q", config.Apply.Mode)
	}
	if config.Push.Attempts < 0 {
		return fmt.Errorf("push attempts must not be negative, got %v", config.Push.Attempts)
	}
	return nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func orDefaultInt(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}

func defaultCredentialPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultCredentialKey
	}
	return filepath.Join(home, defaultCredentialKey)
}
