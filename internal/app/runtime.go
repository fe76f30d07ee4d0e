package app

import (
	"os"
	"strconv"
)

const testModeEnv = "STOREFRONT_TEST_MODE"

// InTestMode reports whether the binaries should return before dialing
// Postgres or Redis. Package tests set it through the testing helpers.
func InTestMode() bool {
	on, err := strconv.ParseBool(os.Getenv(testModeEnv))
	return err == nil && on
}
