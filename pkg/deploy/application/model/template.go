package model

// Built-in variables bound from the deployment config rather than the
// environment.
const (
	RegistryVariable = "REGISTRY"
	ProjectVariable  = "PROJECT_NAME"
)

func BuiltinVariables() []string {
	return []string{VersionVariable, RegistryVariable, ProjectVariable}
}

type Binding struct {
	Name     string
	Value    string
	Optional bool
}

type PlaceholderStatus struct {
	File     string
	Name     string
	Count    int
	Resolved bool
	Reason   string
}

type RenderedFile struct {
	Source       string
	Destination  string
	Replacements int
	Changed      bool
}

type RenderResult struct {
	Files []RenderedFile
}
