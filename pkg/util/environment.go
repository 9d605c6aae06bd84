package util

import (
	"os"
	"strings"
)

const EnvironmentPrefix = "DEPARTUREBOARD_"

func GetEnvironmentVariables() map[string]string {
	environmentVariables := map[string]string{}

	for _, variable := range os.Environ() {
		pair := strings.SplitN(variable, "=", 2)
		if len(pair) != 2 {
			continue
		}

		environmentVariables[pair[0]] = pair[1]
	}

	return environmentVariables
}

// BoardEnv returns the value of DEPARTUREBOARD_<name> from env, or fallback when unset or empty
func BoardEnv(env map[string]string, name string, fallback string) string {
	if value := env[EnvironmentPrefix+name]; value != "" {
		return value
	}

	return fallback
}
