package metadata

import "strings"

// knownArches are the architecture suffixes recognized in RPM filenames.
var knownArches = []string{"x86_64", "noarch", "i686", "i386", "aarch64", "ppc64le", "s390x"}

// DefaultArch is assumed when a filename carries no recognized architecture.
const DefaultArch = "x86_64"

// ParseFilename splits an RPM basename of the form name-version-release.arch.rpm.
// Unknown architectures fall back to DefaultArch; fewer than three dash
// segments fall back to version=0, release=0.
func ParseFilename(basename string) (name, version, release, arch string) {
	stem := strings.TrimSuffix(basename, ".rpm")

	arch = DefaultArch
	for _, known := range knownArches {
		if strings.HasSuffix(stem, "."+known) {
			arch = known
			stem = strings.TrimSuffix(stem, "."+known)
			break
		}
	}

	parts := strings.Split(stem, "-")
	if len(parts) < 3 {
		return stem, "0", "0", arch
	}

	release = parts[len(parts)-1]
	version = parts[len(parts)-2]
	name = strings.Join(parts[:len(parts)-2], "-")
	return name, version, release, arch
}
