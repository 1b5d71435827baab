//go:build !baremetal

package fault

import "runtime/debug"

func park() {
	select {}
}

func captureStack() []byte {
	return debug.Stack()
}
