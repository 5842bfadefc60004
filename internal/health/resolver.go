package health

import (
	"fmt"
	"net/url"
	"strings"
)

// ReadinessPath is the standard health sub-path probed on dependencies.
const ReadinessPath = "/readiness"

// ConfigError reports a bad dependency descriptor. It is raised while
// the registry is built, so a misconfigured service refuses to start
// instead of failing on its first probe.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("health: bad dependency %q: %s", e.Key, e.Reason)
}

// ProbeURL turns a dependency descriptor into a concrete probe URL.
// Pure string construction; it never performs network I/O.
//
// Three base forms are accepted:
//   - a fully qualified URL ("https://user-service:9922/admin"):
//     probePath is appended as-is;
//   - a host with an explicit path but no scheme ("user-service/admin"):
//     the default scheme is prepended;
//   - a bare hostname[:port] ("widget-service"): the default scheme, the
//     management prefix and the "/health" sub-path are synthesized
//     around it.
func ProbeURL(key, base, scheme, prefix, probePath string) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return "", &ConfigError{Key: key, Reason: "empty host"}
	}

	var candidate string
	switch {
	case strings.HasPrefix(base, "http://") || strings.HasPrefix(base, "https://"):
		candidate = base + probePath
	case strings.Contains(base, "/"):
		candidate = scheme + "://" + base + probePath
	default:
		candidate = scheme + "://" + base + prefix + "/health" + probePath
	}

	u, err := url.Parse(candidate)
	if err != nil || u.Host == "" {
		return "", &ConfigError{Key: key, Reason: fmt.Sprintf("cannot parse %q as a URL", candidate)}
	}
	return u.String(), nil
}
