package comparison

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// ErrMissingInput is returned when a required file or folder is absent.
var ErrMissingInput = errors.New("missing input")

// PairedFolder returns the post-operative folder paired with the
// pre-operative folder a: the last character of a's name is replaced by
// "B". Trailing path separators are ignored.
func PairedFolder(a string) (string, error) {
	trimmed := strings.TrimRight(a, `/\`)
	if trimmed == "" {
		return "", fmt.Errorf("%w: cannot derive a paired folder from %q", ErrMissingInput, a)
	}
	_, size := utf8.DecodeLastRuneInString(trimmed)
	b := trimmed[:len(trimmed)-size] + "B"
	if b == trimmed {
		return "", fmt.Errorf("folder %q already names the post timepoint", a)
	}
	return b, nil
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: folder %s", ErrMissingInput, path)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a folder", ErrMissingInput, path)
	}
	return nil
}

func requireFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("%w: %s", ErrMissingInput, p)
			}
			return err
		}
	}
	return nil
}
