package version

import "testing"

func TestVersionStringNonEmpty(t *testing.T) {
	if s := String(); s == "" {
		t.Fatalf("version string is empty")
	}
}

func TestVersionStringWithCommit(t *testing.T) {
	oldV, oldC := Version, Commit
	defer func() { Version, Commit = oldV, oldC }()
	Version, Commit = "1.2.0", "abcdef123456"
	if got := String(); got != "1.2.0+abcdef1" {
		t.Fatalf("unexpected version string %q", got)
	}
}
