package session

import "fmt"

const maxNameLen = 64

// ValidateName checks a session name before it becomes a directory
// under ~/.vktui/sessions. Lowercase letters, digits, hyphen and
// underscore only, so names stay safe as path components and
// unambiguous in --session flags.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("session name is empty")
	}
	if len(name) > maxNameLen {
		return fmt.Errorf("session name %q exceeds %d characters", name, maxNameLen)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return fmt.Errorf("session name %q: character %q not allowed (use a-z, 0-9, -, _)", name, r)
		}
	}
	return nil
}
