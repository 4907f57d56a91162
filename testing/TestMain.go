package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

// ensureTestMode flags the process as a test run and pins the settings
// that would otherwise reach for live infrastructure.
func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("COMPANYDIR_TEST_MODE", "1")
		_ = os.Setenv("STORE_DRIVER", "memory")
		_ = os.Setenv("CACHE_ENABLED", "false")
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
