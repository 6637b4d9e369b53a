package common

import "fmt"

// Env is the deployment environment a component runs in.
type Env string

const (
	Local   Env = "local"
	Test    Env = "test"
	Staging Env = "staging"
	Prod    Env = "prod"
)

func ParseEnv(value string) (Env, error) {
	switch env := Env(value); env {
	case Local, Test, Staging, Prod:
		return env, nil
	default:
		return "", fmt.Errorf("unknown env %q", value)
	}
}

// IsLocal reports whether services are reached over plain http.
func IsLocal(env Env) bool {
	return env == Local || env == Test
}

// Request context

type ContextKey string

const (
	AuthInfoContextKey ContextKey = "AuthInfoContextKey"
	SessionContextKey  ContextKey = "SessionContextKey"
	UserContextKey     ContextKey = "UserContextKey"
)
