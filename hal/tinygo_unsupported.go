//go:build tinygo && baremetal && !rp2040

package hal

// The runtime drives RP2040 SIO, PSM and PPB registers directly. Building for
// any other chip stops here with this message instead of a list of undefined
// symbols.
var _ int = "ember: unsupported board, only rp2040 targets (pico) are implemented"
