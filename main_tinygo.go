//go:build tinygo && baremetal

package main

import (
	"ember/app"
	"ember/hal"
)

func main() {
	app.Run(hal.New())
}
