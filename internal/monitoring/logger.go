// Package monitoring holds the progress logger shared by the pipeline packages.
package monitoring

import "log"

// Logf receives the "[pre] Step N: ..." progress lines and non-fatal
// warnings such as a degenerate normalization.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger redirects progress output; nil silences it.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
