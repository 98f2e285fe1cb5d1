package model

// Environment is the process environment captured once at startup.
type Environment struct {
	BuildNumber string
	Credential  string
	Values      map[string]string
}

func (e Environment) Value(name string) string {
	return e.Values[name]
}
