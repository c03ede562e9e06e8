package manifest

import (
	"os"
	"path/filepath"
	"strings"
)

// LoadDomainFile reads a plain-text rule file: one rule per non-blank line,
// leading and trailing whitespace trimmed. A missing or unreadable file
// yields nil; this function never fails.
func LoadDomainFile(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var rules []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rules = append(rules, line)
	}
	return rules
}

// Path resolves the domain's rule file against the given .synapse root.
// Absolute paths are honored as-is.
func (d *Domain) Path(root string) string {
	if filepath.IsAbs(d.File) {
		return d.File
	}
	return filepath.Join(root, d.File)
}

// Load reads the domain's rule file relative to root.
func (d *Domain) Load(root string) []string {
	return LoadDomainFile(d.Path(root))
}
