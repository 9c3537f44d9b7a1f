package version

import (
	"runtime"
	"testing"
)

func TestSetFillsDefaults(t *testing.T) {
	previous := Current()
	t.Cleanup(func() { Set(previous) })

	Set(Info{Commit: "abc"})
	got := Current()
	if got.Version != "dev" || got.Commit != "abc" || got.GoVersion != runtime.Version() {
		t.Fatalf("unexpected info %+v", got)
	}

	Set(Info{Version: "v1.2.3", GoVersion: "go1.0"})
	got = Current()
	if got.Version != "v1.2.3" || got.GoVersion != "go1.0" {
		t.Fatalf("unexpected info %+v", got)
	}
}
