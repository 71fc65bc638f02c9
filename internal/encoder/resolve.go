package encoder

import "os"

// ModelEnvVar overrides the resolved model ID, second in priority
// after an explicit caller override (spec.md §4.5).
const ModelEnvVar = "DOCBERT_MODEL"

// ResolveModelID implements the priority chain: explicit override,
// then DOCBERT_MODEL, then the stored model_name setting, then the
// compiled-in default. Mirrors the teacher's own env-override-over-
// config pattern in internal/embed/factory.go's NewEmbedder.
func ResolveModelID(override, settingValue string, settingFound bool) string {
	if override != "" {
		return override
	}
	if env := os.Getenv(ModelEnvVar); env != "" {
		return env
	}
	if settingFound && settingValue != "" {
		return settingValue
	}
	return DefaultModelID
}
