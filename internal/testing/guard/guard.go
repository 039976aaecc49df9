// Package guard forces test mode for internal package tests. Import it
// blank from a _test.go file so binaries under test never start real
// runtime side effects.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("ATLAS_TEST_MODE") == "" {
			_ = os.Setenv("ATLAS_TEST_MODE", "1")
		}
	})
}
