package version

import "testing"

func TestInfo(t *testing.T) {
	Version, Commit, Date = "1.2.0", "abc123", "2024-03-01"
	t.Cleanup(func() { Version, Commit, Date = "dev", "none", "unknown" })

	if got := Info(); got != "tiempo 1.2.0 (commit abc123, built 2024-03-01)" {
		t.Fatalf("Info() = %q", got)
	}
}
