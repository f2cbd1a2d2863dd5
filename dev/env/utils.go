package devenv

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	moduleName     = "cryptoscout"
	stateDirPrefix = "<dev_state>"
)

var moduleDirective = regexp.MustCompile(`(?m)^module\s+(\S+)\s*$`)

func isWorkspaceRoot(dir string) bool {
	mod, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return false
	}
	matches := moduleDirective.FindSubmatch(mod)
	return matches != nil && string(matches[1]) == moduleName
}

// GetWorkspaceRoot walks up from the working directory to the checkout of
// this module, it returns os.ErrNotExist outside of one.
func GetWorkspaceRoot() (string, error) {
	dir, err := filepath.Abs(".")
	if err != nil {
		return "", err
	}
	for !isWorkspaceRoot(dir) {
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
	return dir, nil
}

// ResolvePath maps a path starting with <dev_state> into the workspace's
// dev/.state directory (creating it), any other path is returned unchanged.
func ResolvePath(path string) (string, error) {
	rest, ok := strings.CutPrefix(path, stateDirPrefix)
	if !ok {
		return path, nil
	}

	root, err := GetWorkspaceRoot()
	if err != nil {
		return "", err
	}
	stateDir := filepath.Join(root, "dev", ".state")
	err = os.MkdirAll(stateDir, 0777)
	if err != nil {
		return "", err
	}
	return filepath.Join(stateDir, strings.TrimLeft(rest, `/\`)), nil
}
