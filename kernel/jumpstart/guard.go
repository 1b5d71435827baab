package jumpstart

const (
	// MPU_CTRL: ENABLE | PRIVDEFENA. The default memory map stays in force
	// outside the guard region.
	mpuEnablePrivDefault = 5

	rbarValid     = 1 << 3
	rasrEnable    = 1
	rasrSize256   = 7 << 1
	rasrExecNever = 1 << 28
)

// GuardRegion returns the MPU RBAR and RASR values that fence off the lowest
// 32 bytes of a stack whose lowest word is at bottom.
//
// The smallest region is 256 bytes split into eight 32-byte subregions. The
// guard is the subregion holding the first 32-byte boundary at or above
// bottom; the other seven are disabled. The region has no access permissions
// and execute-never set, so a stack overflow into it faults.
func GuardRegion(bottom uint32) (rbar, rasr uint32) {
	addr := (bottom + 31) &^ 31
	sub := uint32(0xff) ^ (1 << ((addr >> 5) & 7))
	rbar = (addr &^ 0xff) | rbarValid
	rasr = rasrEnable | rasrSize256 | sub<<8 | rasrExecNever
	return rbar, rasr
}
