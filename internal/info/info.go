package info

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

// podNameRe parses a k8s pod name out of a network hostname, e.g.
// "widget-5d4f8b9c7-x2j4q" style names collapse to deployment + hashes.
var podNameRe = regexp.MustCompile(`^(\w+)-([a-z0-9]{9})-([a-z0-9]{5})$`)

// Attributes builds the /info payload: application attributes plus
// trace attributes in the Open Telemetry Resource format describing the
// host, OS, process and (when present) the surrounding Kubernetes pod.
func Attributes(appName, version string, enableServiceInstanceID bool) map[string]any {
	return map[string]any{
		"app":              appAttributes(appName, version),
		"trace.attributes": traceAttributes(appName, version, enableServiceInstanceID),
	}
}

func appAttributes(name, version string) map[string]any {
	attrs := map[string]any{}
	if name != "" {
		attrs["name"] = name
	}
	if version != "" {
		attrs["version"] = version
	}
	return attrs
}

func traceAttributes(appName, version string, enableServiceInstanceID bool) map[string]any {
	attrs := map[string]any{
		"service.name": appName,
	}
	if version != "" {
		attrs["service.version"] = version
	}

	attrs["host.arch"] = runtime.GOARCH
	if name, err := os.Hostname(); err == nil && name != "" {
		attrs["host.name"] = name
	}
	if hostname := networkHostname(); hostname != "" {
		attrs["host.hostname"] = hostname
	}

	attrs["os.type"] = runtime.GOOS
	attrs["os.description"] = runtime.GOOS + "/" + runtime.GOARCH

	attrs["process.pid"] = os.Getpid()
	attrs["process.command_line"] = strings.Join(os.Args, " ")
	if exe, err := os.Executable(); err == nil {
		attrs["process.executable.path"] = exe
	}
	attrs["process.runtime.name"] = runtime.Compiler
	attrs["process.runtime.version"] = runtime.Version()

	if id := readFirstLine("/etc/machine-id"); id != "" {
		attrs["machine.id"] = id
	}
	if id := containerID("/proc/1/cpuset"); id != "" {
		attrs["container.id"] = id
	}
	if enableServiceInstanceID {
		if id := serviceInstanceID(appName, ""); id != "" {
			attrs["service.instance.id"] = id
		}
	}
	for k, v := range k8sAttributes(networkHostname(), os.Getenv("NAMESPACE")) {
		attrs[k] = v
	}

	return attrs
}

func networkHostname() string {
	if h := os.Getenv("HOSTNAME"); h != "" {
		return h
	}
	h, _ := os.Hostname()
	return h
}

func containerID(cpusetFile string) string {
	content := readFirstLine(cpusetFile)
	if content == "" {
		return ""
	}
	tokens := strings.Split(content, "/")
	return tokens[len(tokens)-1]
}

// serviceInstanceID returns a unique id for this application on this
// host, generating and persisting one on first use so it stays constant
// across restarts.
func serviceInstanceID(appName, file string) string {
	if file == "" {
		file = filepath.Join(os.TempDir(), appName+"-service-instance-id")
	}

	if id := readFirstLine(file); id != "" {
		return id
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	id := hex.EncodeToString(buf)
	if err := os.WriteFile(file, []byte(id+"\n"), 0o644); err != nil {
		return ""
	}
	return id
}

func k8sAttributes(hostname, namespace string) map[string]any {
	attrs := map[string]any{}
	if m := podNameRe.FindStringSubmatch(hostname); m != nil {
		attrs["k8s.pod.name"] = hostname
		attrs["k8s.container.name"] = m[1]
	}
	if namespace != "" {
		attrs["k8s.namespace.name"] = namespace
	}
	return attrs
}

// readFirstLine reads at most the first 1024 bytes of the first line of
// a file, or "" when the file is missing or empty.
func readFirstLine(file string) string {
	data, err := os.ReadFile(file)
	if err != nil {
		return ""
	}
	line := string(data)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if len(line) > 1024 {
		line = line[:1024]
	}
	return strings.TrimSpace(line)
}
