// Package login starts hark when the user logs in.
package login

import (
	"os"
	"sort"
	"strings"
)

// harkEnv returns the HARK_* variables of the current process, sorted.
func harkEnv() []string {
	var out []string
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "HARK_") {
			out = append(out, kv)
		}
	}
	sort.Strings(out)
	return out
}
