//go:build !(tinygo && bootdebug)

package app

import "ember/hal"

func bootStep(hal.HAL, string) {}
