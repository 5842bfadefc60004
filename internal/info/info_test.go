package info

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAttributes_AppSection(t *testing.T) {
	attrs := Attributes("orders", "1.4.2", false)

	app, ok := attrs["app"].(map[string]any)
	if !ok {
		t.Fatalf("want app section, got %+v", attrs)
	}
	if app["name"] != "orders" || app["version"] != "1.4.2" {
		t.Fatalf("want name+version, got %+v", app)
	}

	trace, ok := attrs["trace.attributes"].(map[string]any)
	if !ok {
		t.Fatalf("want trace.attributes section, got %+v", attrs)
	}
	if trace["service.name"] != "orders" {
		t.Fatalf("want service.name, got %+v", trace)
	}
	if trace["process.pid"] != os.Getpid() {
		t.Fatalf("want own pid, got %+v", trace["process.pid"])
	}
	for _, key := range []string{"host.arch", "os.type", "process.runtime.version"} {
		if trace[key] == "" || trace[key] == nil {
			t.Fatalf("want %s set, got %+v", key, trace)
		}
	}
}

func TestAttributes_EmptyVersionOmitted(t *testing.T) {
	attrs := Attributes("orders", "", false)
	app := attrs["app"].(map[string]any)
	if _, ok := app["version"]; ok {
		t.Fatalf("empty version must be omitted, got %+v", app)
	}
}

func TestK8sAttributes(t *testing.T) {
	attrs := k8sAttributes("widget-5d4f8b9c7-x2j4q", "prod")
	if attrs["k8s.pod.name"] != "widget-5d4f8b9c7-x2j4q" {
		t.Fatalf("want pod name, got %+v", attrs)
	}
	if attrs["k8s.container.name"] != "widget" {
		t.Fatalf("want container name widget, got %+v", attrs)
	}
	if attrs["k8s.namespace.name"] != "prod" {
		t.Fatalf("want namespace, got %+v", attrs)
	}

	// a plain hostname is not a pod
	attrs = k8sAttributes("build-box", "")
	if len(attrs) != 0 {
		t.Fatalf("plain hostname must yield nothing, got %+v", attrs)
	}
}

func TestServiceInstanceID_StableAcrossCalls(t *testing.T) {
	file := filepath.Join(t.TempDir(), "orders-service-instance-id")

	first := serviceInstanceID("orders", file)
	if first == "" {
		t.Fatalf("want generated id")
	}
	second := serviceInstanceID("orders", file)
	if first != second {
		t.Fatalf("id must persist: %q vs %q", first, second)
	}
}

func TestContainerID(t *testing.T) {
	file := filepath.Join(t.TempDir(), "cpuset")
	if err := os.WriteFile(file, []byte("/kubepods/burstable/podx/abcdef123456\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := containerID(file); got != "abcdef123456" {
		t.Fatalf("want container id, got %q", got)
	}
	if got := containerID(filepath.Join(t.TempDir(), "missing")); got != "" {
		t.Fatalf("missing file must yield empty id, got %q", got)
	}
}

func TestReadFirstLine(t *testing.T) {
	file := filepath.Join(t.TempDir(), "machine-id")
	if err := os.WriteFile(file, []byte("  abc123  \nsecond line\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := readFirstLine(file); got != "abc123" {
		t.Fatalf("want trimmed first line, got %q", got)
	}
}
