package privacy

import "strings"

// Wildcard is the path segment that matches every element of a list.
const Wildcard = "*"

// EncryptExcept deep-copies the document (a tree of maps, lists and
// scalars) and encrypts every reachable string scalar, except values
// reachable via one of the given path patterns, which are left untouched.
// Patterns are dot-separated segments; a pattern also covers the whole
// subtree below it. Nils and non-string scalars are never modified.
func (e *Engine) EncryptExcept(document any, pathsToKeepPlain []string) (any, error) {
	patterns := splitPaths(pathsToKeepPlain)
	return e.encryptWalk(document, nil, patterns)
}

func (e *Engine) encryptWalk(value any, path []string, keep [][]string) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, child := range v {
			encrypted, err := e.encryptWalk(child, append(path, key), keep)
			if err != nil {
				return nil, err
			}
			out[key] = encrypted
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			encrypted, err := e.encryptWalk(child, append(path, Wildcard), keep)
			if err != nil {
				return nil, err
			}
			out[i] = encrypted
		}
		return out, nil
	case string:
		if matchesAny(path, keep) {
			return v, nil
		}
		return e.Encrypt(v)
	default:
		// Numbers, booleans and nils pass through as-is.
		return v, nil
	}
}

// DecryptAt deep-copies the document and decrypts only the string scalars
// reachable at the given paths, wildcards expanding across list elements.
// Every other field, including other string scalars, is left untouched.
// This is the dual of EncryptExcept.
func (e *Engine) DecryptAt(document any, paths []string) any {
	out := deepCopy(document)
	for _, path := range splitPaths(paths) {
		out = e.decryptWalk(out, path)
	}
	return out
}

func (e *Engine) decryptWalk(value any, path []string) any {
	if len(path) == 0 {
		if s, ok := value.(string); ok {
			return e.Decrypt(s)
		}
		return value
	}
	segment := path[0]
	switch v := value.(type) {
	case map[string]any:
		if child, ok := v[segment]; ok {
			v[segment] = e.decryptWalk(child, path[1:])
		}
		return v
	case []any:
		if segment != Wildcard {
			return v
		}
		for i, child := range v {
			v[i] = e.decryptWalk(child, path[1:])
		}
		return v
	default:
		return v
	}
}

func deepCopy(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, child := range v {
			out[key] = deepCopy(child)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			out[i] = deepCopy(child)
		}
		return out
	default:
		return v
	}
}

func splitPaths(paths []string) [][]string {
	out := make([][]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		out = append(out, strings.Split(p, "."))
	}
	return out
}

// matchesAny reports whether any pattern matches the path exactly or is a
// prefix of it. A Wildcard pattern segment matches any single path segment.
func matchesAny(path []string, patterns [][]string) bool {
	for _, pattern := range patterns {
		if matchesPrefix(path, pattern) {
			return true
		}
	}
	return false
}

func matchesPrefix(path, pattern []string) bool {
	if len(pattern) > len(path) {
		return false
	}
	for i, seg := range pattern {
		if seg != Wildcard && seg != path[i] {
			return false
		}
	}
	return true
}
