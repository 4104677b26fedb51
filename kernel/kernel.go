// Package kernel implements the ccp.KernelConfig data-path side-channel:
// installing per-direction MPPE keys, toggling CCP_OPEN/CCP_UP interface
// flags, and getting/setting the PPP interface MTU. The Linux
// implementation (linux.go) issues the same ioctls as
// original_source/accel-pptpd/ppp/ccp_mppe.c and ppp_ccp.c; fake.go
// provides an in-memory stand-in for platforms or tests with no real
// kernel PPP generic driver available.
package kernel

// PPP generic-driver ioctl numbers, from linux/ppp-ioctl.h. Computed with
// the same _IOR/_IOW encoding the kernel header itself uses, rather than
// hard-coded magic numbers, so the argument size (which varies by
// platform pointer width) is always derived from the actual Go struct.
const (
	ioctlTypeBits = 8
	ioctlNrBits   = 8
	ioctlSizeBits = 14

	ioctlNrShift   = 0
	ioctlTypeShift = ioctlNrShift + ioctlNrBits
	ioctlSizeShift = ioctlTypeShift + ioctlTypeBits
	ioctlDirShift  = ioctlSizeShift + ioctlSizeBits

	ioctlRead  = 2
	ioctlWrite = 1

	pppIoctlType = 't'
)

func ioc(dir, nr, size uintptr) uintptr {
	return dir<<ioctlDirShift | pppIoctlType<<ioctlTypeShift | nr<<ioctlNrShift | size<<ioctlSizeShift
}

// optionData mirrors struct ppp_option_data from linux/ppp-ioctl.h: a
// pointer to the raw {id, len, flags} option bytes followed by the 16-byte
// key, the total length, and a
// transmit/receive direction flag.
type optionData struct {
	ptr      uintptr
	length   uint32
	transmit int32
}
