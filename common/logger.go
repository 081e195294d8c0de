package common

import (
	"scalyze/status"
)

// Set to true during development for chatty logging without passing -v everywhere.
const DEBUG = false

// MT: Constant after initialization; thread-safe
var Log status.Logger = status.Default()

func init() {
	if DEBUG {
		Log.SetLevel(status.LogLevelInfo)
	}
}
