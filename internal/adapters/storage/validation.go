package storage

import (
	"fmt"
	"strings"
)

const maxObjectKeyLength = 1024

// ValidateObjectKey rejects keys MinIO would refuse or that escape their
// prefix.
func ValidateObjectKey(key string) error {
	switch {
	case key == "":
		return fmt.Errorf("object key is empty")
	case len(key) > maxObjectKeyLength:
		return fmt.Errorf("object key exceeds %d bytes", maxObjectKeyLength)
	case strings.HasPrefix(key, "/"):
		return fmt.Errorf("object key %q must be relative", key)
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return fmt.Errorf("object key %q has an invalid path segment", key)
		}
	}
	return nil
}
