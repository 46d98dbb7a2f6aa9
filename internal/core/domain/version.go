package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Version component patterns. Release-note filenames and bodies carry
// tags like "21.4.0", "21.4.0 SP2", "21.4.0 SP2 HF3" or interim build
// markers like "21.4.0-B17-".
var (
	versionTripleRe = regexp.MustCompile(`(\d+)\.(\d+)\.(\d+)`)
	servicePackRe   = regexp.MustCompile(`(?i)SP\s?(\d+)`)
	hotfixRe        = regexp.MustCompile(`(?i)HF\s?(\d+)`)
	buildRe         = regexp.MustCompile(`(?i)-B(\d+)`)
)

// Version is the parsed form of a release tag. Ordering is
// lexicographic over (Major, Minor, Patch, SP, HF). A hotfix release
// stores a positive HF, a bare or "Release" tag stores zero, and an
// interim build stores the negative build number, so for the same base
// version HF releases sort above the release which sorts above builds.
type Version struct {
	// Major, Minor, Patch form the dotted numeric triple.
	Major int
	Minor int
	Patch int

	// SP is the service pack number, zero when absent.
	SP int

	// HF is the hotfix number, the negated build number for interim
	// builds, or zero for the plain release.
	HF int

	// Raw is the original tag string the version was parsed from.
	Raw string
}

// ParseVersion parses a release tag string into a Version.
// The dotted numeric triple is mandatory. SP, HF and build markers are
// optional and matched case-insensitively; trailing letters after a
// hotfix number ("HF9e") are ignored.
func ParseVersion(tag string) (Version, error) {
	m := versionTripleRe.FindStringSubmatch(tag)
	if m == nil {
		return Version{}, fmt.Errorf("%w: %q", ErrUnparsableVersion, tag)
	}

	v := Version{Raw: strings.TrimSpace(tag)}
	v.Major, _ = strconv.Atoi(m[1])
	v.Minor, _ = strconv.Atoi(m[2])
	v.Patch, _ = strconv.Atoi(m[3])

	if sp := servicePackRe.FindStringSubmatch(tag); sp != nil {
		v.SP, _ = strconv.Atoi(sp[1])
	}

	// A hotfix marker wins over a build marker when both appear.
	if hf := hotfixRe.FindStringSubmatch(tag); hf != nil {
		v.HF, _ = strconv.Atoi(hf[1])
	} else if b := buildRe.FindStringSubmatch(tag); b != nil {
		n, _ := strconv.Atoi(b[1])
		v.HF = -n
	}

	return v, nil
}

// VersionFromFilename extracts and parses the version tag embedded in a
// release-note filename such as
// "Product_Version_21.4.0_SP2_HF3_Release_Notes.pdf". Underscores are
// treated as separators before scanning.
func VersionFromFilename(filename string) (Version, error) {
	return ParseVersion(strings.ReplaceAll(filename, "_", " "))
}

// Compare returns -1, 0 or 1 ordering v against other.
func (v Version) Compare(other Version) int {
	a := [5]int{v.Major, v.Minor, v.Patch, v.SP, v.HF}
	b := [5]int{other.Major, other.Minor, other.Patch, other.SP, other.HF}
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// Less reports whether v orders strictly before other.
func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

// IsZero reports whether v is the unset version.
func (v Version) IsZero() bool {
	return v == Version{}
}

// String renders the canonical form of the version.
func (v Version) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.SP > 0 {
		fmt.Fprintf(&b, " SP%d", v.SP)
	}
	switch {
	case v.HF > 0:
		fmt.Fprintf(&b, " HF%d", v.HF)
	case v.HF < 0:
		fmt.Fprintf(&b, " B%d", -v.HF)
	}
	return b.String()
}
