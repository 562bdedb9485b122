package migrate

import (
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// CompareVersions orders migration versions. All-digit versions compare
// numerically, versions that both parse as semantic versions compare with
// go-version, and anything else compares lexically.
func CompareVersions(a, b string) int {
	if isDigits(a) && isDigits(b) {
		a, b = strings.TrimLeft(a, "0"), strings.TrimLeft(b, "0")
		if len(a) != len(b) {
			if len(a) < len(b) {
				return -1
			}
			return 1
		}
		return strings.Compare(a, b)
	}
	va, errA := goversion.NewVersion(a)
	vb, errB := goversion.NewVersion(b)
	if errA == nil && errB == nil {
		if c := va.Compare(vb); c != 0 {
			return c
		}
	}
	return strings.Compare(a, b)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// versionFromDir extracts the version from a migration directory name of the
// form <version>_<name>. Dashes in the version are dropped so that
// 2024-01-02-150405 becomes 20240102150405.
func versionFromDir(dir string) (version, name string) {
	version, name, _ = strings.Cut(dir, "_")
	return strings.ReplaceAll(version, "-", ""), name
}
