package opcode

const (
	RRQ   = iota + 1 // 1: Read request
	WRQ              // 2: Write request
	DATA             // 3: File data block
	ACK              // 4: Block acknowledgment
	ERROR            // 5: Error report
)
