//go:build windows

package appdirs

import "errors"

var errUnsupported = errors.New("runtime dirs are not supported on windows yet")

func RuntimeDir() (string, error) {
	return "", errUnsupported
}

func RuntimeDirPath() (string, error) {
	return "", errUnsupported
}

func ConfigDirPath() (string, error) {
	return "", errUnsupported
}

func EnsurePrivateDir(dir string, _ bool) (string, error) {
	return "", errUnsupported
}
