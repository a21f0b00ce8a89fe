package detect

import (
	"strconv"
	"strings"
)

// pathSegment is one dot-separated step of a fingerprint path: a key lookup
// optionally followed by array index hops.
type pathSegment struct {
	key     string
	indexes []int
}

// resolve walks doc along a path like "FVDL.EngineData.EngineVersion" or
// "results[0].complianceDistribution" and reports whether every step
// succeeded. The value at the end may legitimately be nil or empty; only
// missing keys, wrong container kinds, and out-of-range indexes fail.
func resolve(doc map[string]interface{}, path string) (interface{}, bool) {
	segments, ok := splitPath(path)
	if !ok {
		return nil, false
	}
	var current interface{} = doc
	for _, seg := range segments {
		obj, isObj := current.(map[string]interface{})
		if !isObj {
			return nil, false
		}
		val, present := obj[seg.key]
		if !present {
			return nil, false
		}
		current = val
		for _, idx := range seg.indexes {
			arr, isArr := current.([]interface{})
			if !isArr || idx < 0 || idx >= len(arr) {
				return nil, false
			}
			current = arr[idx]
		}
	}
	return current, true
}

func splitPath(path string) ([]pathSegment, bool) {
	if path == "" {
		return nil, false
	}
	parts := strings.Split(path, ".")
	segments := make([]pathSegment, 0, len(parts))
	for _, part := range parts {
		seg, ok := parseSegment(part)
		if !ok {
			return nil, false
		}
		segments = append(segments, seg)
	}
	return segments, true
}

// parseSegment splits "results[0]" into key "results" and index 0. Keys may
// contain any character except dots and brackets, so "$schema" and
// "@generated" parse as plain keys.
func parseSegment(part string) (pathSegment, bool) {
	open := strings.IndexByte(part, '[')
	if open < 0 {
		if part == "" {
			return pathSegment{}, false
		}
		return pathSegment{key: part}, true
	}
	seg := pathSegment{key: part[:open]}
	if seg.key == "" {
		return pathSegment{}, false
	}
	rest := part[open:]
	for rest != "" {
		if rest[0] != '[' {
			return pathSegment{}, false
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return pathSegment{}, false
		}
		idx, err := strconv.Atoi(rest[1:end])
		if err != nil || idx < 0 {
			return pathSegment{}, false
		}
		seg.indexes = append(seg.indexes, idx)
		rest = rest[end+1:]
	}
	return seg, true
}
