package browser

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// Environment is the input of the headless default rule.
type Environment struct {
	CI  bool
	TTY bool
	Env map[string]string
}

// DetectEnvironment inspects the current process. CI is taken from the CI
// variable and TTY from stdout, where the runner's reporter writes.
func DetectEnvironment() Environment {
	return detectEnvironment(os.Environ(), os.Stdout)
}

var isTerminal = term.IsTerminal

func detectEnvironment(environ []string, stdout *os.File) Environment {
	env := make(map[string]string, len(environ))
	for _, entry := range environ {
		key, value, ok := strings.Cut(entry, "=")
		if ok {
			env[key] = value
		}
	}
	return Environment{
		CI:  truthy(env["CI"]),
		TTY: isTerminal(int(stdout.Fd())),
		Env: env,
	}
}

func truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "no", "off":
		return false
	default:
		return true
	}
}

func (e Environment) bindings(providerName string) map[string]any {
	env := make(map[string]any, len(e.Env))
	for key, value := range e.Env {
		env[key] = value
	}
	return map[string]any{
		"ci":       e.CI,
		"tty":      e.TTY,
		"env":      env,
		"provider": providerName,
	}
}
