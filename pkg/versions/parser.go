package versions

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Parser turns a raw tag name into a semantic version.
// A non-nil error means the tag is not a version and should be skipped.
type Parser interface {
	Parse(tag string) (*semver.Version, error)
}

// ParserFunc adapts an ordinary function to the [Parser] interface.
type ParserFunc func(tag string) (*semver.Version, error)

// Parse calls f(tag).
func (f ParserFunc) Parse(tag string) (*semver.Version, error) { return f(tag) }

var (
	// Lenient accepts the version tags found in the wild: a leading "v",
	// X and X.Y shorthand, leading zeros, numeric segments past the third
	// (kept as build metadata, 1.2.3.4 is 1.2.3+4) and pre-releases joined
	// with '.', '-' or nothing (1.2.3.rc1, 1.2.3rc1).
	Lenient Parser = ParserFunc(parseLenient)

	// Strict accepts only MAJOR.MINOR.PATCH[-PRERELEASE][+BUILD].
	Strict Parser = ParserFunc(semver.StrictNewVersion)
)

// Parser names accepted by [ParserByName].
const (
	ParserLenient = "lenient"
	ParserStrict  = "strict"
)

// ParserByName returns the parser registered under name.
// The empty name selects [Lenient].
func ParserByName(name string) (Parser, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ParserLenient:
		return Lenient, nil
	case ParserStrict:
		return Strict, nil
	default:
		return nil, fmt.Errorf("unknown parser %q (want %s or %s)", name, ParserLenient, ParserStrict)
	}
}

func parseLenient(tag string) (*semver.Version, error) {
	canonical, err := normalize(tag)
	if err != nil {
		return nil, err
	}
	return semver.StrictNewVersion(canonical)
}

// normalize rewrites a lenient tag into a strict SemVer string.
func normalize(tag string) (string, error) {
	t := strings.TrimSpace(tag)
	if len(t) > 0 && (t[0] == 'v' || t[0] == 'V') {
		t = t[1:]
	}

	var build []string
	if i := strings.IndexByte(t, '+'); i >= 0 {
		build = strings.Split(t[i+1:], ".")
		t = t[:i]
	}

	var nums []uint64
	for {
		n := digitPrefix(t)
		if n == 0 {
			break
		}
		num, err := strconv.ParseUint(t[:n], 10, 64)
		if err != nil {
			return "", fmt.Errorf("invalid version segment %q in %q", t[:n], tag)
		}
		nums = append(nums, num)
		t = t[n:]
		if len(t) > 1 && t[0] == '.' && digitPrefix(t[1:]) > 0 {
			t = t[1:]
			continue
		}
		break
	}
	if len(nums) == 0 {
		return "", fmt.Errorf("invalid semantic version %q", tag)
	}

	var pre string
	if t != "" {
		if t[0] == '-' || t[0] == '.' {
			t = t[1:]
		}
		if t == "" {
			return "", fmt.Errorf("empty pre-release in %q", tag)
		}
		pre = trimNumericZeros(t)
	}

	core := [3]uint64{}
	copy(core[:], nums)
	if len(nums) > 3 {
		extra := make([]string, 0, len(nums)-3)
		for _, n := range nums[3:] {
			extra = append(extra, strconv.FormatUint(n, 10))
		}
		build = append(extra, build...)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d.%d.%d", core[0], core[1], core[2])
	if pre != "" {
		b.WriteString("-" + pre)
	}
	if len(build) > 0 {
		b.WriteString("+" + strings.Join(build, "."))
	}
	return b.String(), nil
}

// digitPrefix returns the number of leading ASCII digits in s.
func digitPrefix(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}

// trimNumericZeros drops leading zeros from purely numeric pre-release
// identifiers, which SemVer forbids.
func trimNumericZeros(pre string) string {
	ids := strings.Split(pre, ".")
	for i, id := range ids {
		if id != "" && digitPrefix(id) == len(id) {
			if trimmed := strings.TrimLeft(id, "0"); trimmed != "" {
				ids[i] = trimmed
			} else {
				ids[i] = "0"
			}
		}
	}
	return strings.Join(ids, ".")
}
