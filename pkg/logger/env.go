package logger

// Environment names a deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// ParseEnvironment maps common spellings onto an Environment.
// Anything unrecognised is treated as development.
func ParseEnvironment(s string) Environment {
	switch s {
	case string(Production), "prod":
		return Production
	case string(Staging), "stage":
		return Staging
	default:
		return Development
	}
}
