// Package security checks user-supplied identifiers before they are embedded
// in output file names.
package security

import "fmt"

// maxNameLen bounds a detector name.
const maxNameLen = 64

// ValidateDetectorName accepts names made of ASCII letters, digits,
// underscores and dashes, such as "H1" or "V1". Anything that could add a
// path separator or a ".." component to injtimes_<name>.dat or
// weights_<name>.dat is rejected.
func ValidateDetectorName(name string) error {
	if name == "" {
		return fmt.Errorf("empty detector name")
	}
	if len(name) > maxNameLen {
		return fmt.Errorf("detector name %.16q... longer than %d bytes", name, maxNameLen)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return fmt.Errorf("detector name %q contains %q", name, r)
		}
	}
	return nil
}

// ValidateDetectorNames checks every name and rejects duplicates.
func ValidateDetectorNames(names []string) error {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if err := ValidateDetectorName(n); err != nil {
			return err
		}
		if seen[n] {
			return fmt.Errorf("detector %s given twice", n)
		}
		seen[n] = true
	}
	return nil
}
