package guess

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
)

// versionSpan matches a version marker such as "-v2" or ".v3" immediately
// before the extension or a separator.
var versionSpan = regexp.MustCompile(`(?i)[-._ ]v(\d+)\b`)

// partSpan matches a part marker such as "-pt2", "part 2", "cd1".
var partSpan = regexp.MustCompile(`(?i)[-._ ](?:pt|part|cd)[ ._-]?(\d+)\b`)

// StripVersionAndPart removes version and part spans from a path so that
// RenderingHash is independent of them (spec.md invariant 1 / Testable
// Property 1).
func StripVersionAndPart(path string) string {
	path = versionSpan.ReplaceAllString(path, "")
	path = partSpan.ReplaceAllString(path, "")
	return path
}

// RenderingHash computes the stable SHA-256 over a path with version and
// part spans stripped, so different versions/parts of the same logical
// release collide into one "rendering" (spec.md §3).
func RenderingHash(path string) string {
	stripped := StripVersionAndPart(path)
	sum := sha256.Sum256([]byte(stripped))
	return hex.EncodeToString(sum[:])
}

// ExtractVersion returns the version found in path, defaulting to 1.
func ExtractVersion(path string) int {
	m := versionSpan.FindStringSubmatch(path)
	if m == nil {
		return 1
	}
	v := 0
	for _, c := range m[1] {
		v = v*10 + int(c-'0')
	}
	if v == 0 {
		return 1
	}
	return v
}

// ExtractPart returns the part found in path, or nil if absent.
func ExtractPart(path string) *int {
	m := partSpan.FindStringSubmatch(path)
	if m == nil {
		return nil
	}
	p := 0
	for _, c := range m[1] {
		p = p*10 + int(c-'0')
	}
	return &p
}
