package discovery

import "regexp"

// secretPattern matches key=value or key: value assignments whose key looks
// like a credential. The value is replaced wholesale; the key is kept so
// operators can still tell what was redacted.
var secretPattern = regexp.MustCompile(`(?i)(password|secret|token|api[_-]?key|credentials)\s*[=:]\s*\S+`)

// Redact replaces potential secrets embedded in a command string with a
// placeholder. Applied to every command before it leaves discovery.
func Redact(command string) string {
	return secretPattern.ReplaceAllString(command, "${1}=***")
}
