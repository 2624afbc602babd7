//go:build !windows

package permissions

import "os"

func isElevated() bool {
	return os.Geteuid() == 0
}
