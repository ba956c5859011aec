package preset

import (
	"regexp"
	"strconv"
)

// indexedKeyRegex matches a preset key ending in a pass index, e.g.
// "shader3", "filter_linear0", "scale_type_x2".
var indexedKeyRegex = regexp.MustCompile(`^([a-zA-Z_]+?)(\d+)$`)

// splitIndexedKey splits a key like "shader3" into its base name "shader"
// and numeric index 3. Returns ok=false if the key has no trailing digits.
func splitIndexedKey(key string) (base string, index int, ok bool) {
	m := indexedKeyRegex.FindStringSubmatch(key)
	if m == nil {
		return "", 0, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return m[1], n, true
}

// textureSuffixes lists the "<tex>_wrap_mode", "<tex>_linear", and
// "<tex>_mipmap" per-texture key suffixes described in spec.md §4.1.
var textureSuffixes = []string{"_wrap_mode", "_linear", "_mipmap"}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}
