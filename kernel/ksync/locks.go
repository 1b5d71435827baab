package ksync

// Hardware spinlock indices. Every value that must be one logical lock uses
// exactly one index; cells of the same kind share their index, so the runtime
// never holds two cells of one kind at once.
const (
	LockRunQueue        uint8 = 0
	LockJoinWaker       uint8 = 1
	LockJoinWakerCount  uint8 = 2
	LockJoinResult      uint8 = 3
	LockJoinResultCount uint8 = 4
	LockTask            uint8 = 5
	LockTaskCount       uint8 = 6
	LockReactor         uint8 = 7
	LockCore1Word       uint8 = 8
)
