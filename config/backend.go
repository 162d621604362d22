package config

import "time"

// BackendConfig contains the storefront backend connection configuration.
// The backend issues and verifies credentials; this module only consumes them.
type BackendConfig struct {
	// BaseURL is the backend API root, e.g. https://api.example.com/api.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:3000/api"`

	// Timeout bounds each backend request.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`

	// RolesExpression is an optional JMESPath expression pointing at the
	// roles inside a nonstandard login payload. Empty means the standard
	// roles/role fields are used.
	RolesExpression string `env:"ROLES_EXPRESSION"`
}

// Sanitize applies guardrails to backend configuration values.
func (c *BackendConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}
