//go:build linux

package kernel

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/fragglet/pppccp/ccp"
)

var _ ccp.KernelConfig = (*Config)(nil)

// PPP generic-driver flag bits from linux/if_ppp.h, OR'd together for
// PPPIOCGFLAGS/PPPIOCSFLAGS.
const (
	scCompress   = 0x00000001
	scDecompress = 0x00000002
	scCCPOpen    = 0x00000040
	scCCPUp      = 0x00000080
)

var (
	pppiocgflags    = ioc(ioctlRead, 90, unsafe.Sizeof(int32(0)))
	pppiocsflags    = ioc(ioctlWrite, 89, unsafe.Sizeof(int32(0)))
	pppiocscompress = ioc(ioctlWrite, 77, unsafe.Sizeof(optionData{}))
)

// Config is the Linux implementation of ccp.KernelConfig. UnitFD is the
// file descriptor of the session's PPP generic-driver channel (opened
// against /dev/ppp and attached the way pppd/accel-pptpd do); IfName
// names the corresponding network interface for the MTU ioctls. A zero
// UnitFD means "no PPP unit available" and InstallCompression/SetCCPFlags
// fail gracefully, matching spec.md §6's "missing or failing data-path
// interface... results in a warning plus graceful MPPE disablement".
type Config struct {
	UnitFD int
	IfName string
}

func (c *Config) InstallCompression(transmit bool, optBytes []byte, key [16]byte) error {
	if c.UnitFD == 0 {
		return fmt.Errorf("kernel: no PPP unit fd available")
	}
	buf := append(append([]byte{}, optBytes...), key[:]...)
	data := optionData{
		ptr:    uintptr(unsafe.Pointer(&buf[0])),
		length: uint32(len(buf)),
	}
	if transmit {
		data.transmit = 1
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(c.UnitFD), pppiocscompress, uintptr(unsafe.Pointer(&data)))
	if errno != 0 {
		return fmt.Errorf("kernel: PPPIOCSCOMPRESS: %w", errno)
	}
	return nil
}

func (c *Config) SetCCPFlags(open, up bool) error {
	if c.UnitFD == 0 {
		return fmt.Errorf("kernel: no PPP unit fd available")
	}
	var flags int32
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(c.UnitFD), pppiocgflags, uintptr(unsafe.Pointer(&flags)))
	if errno != 0 {
		return fmt.Errorf("kernel: PPPIOCGFLAGS: %w", errno)
	}
	flags &^= scCCPOpen | scCCPUp
	if open {
		flags |= scCCPOpen
	}
	if up {
		flags |= scCCPUp
	}
	_, _, errno = unix.Syscall(unix.SYS_IOCTL, uintptr(c.UnitFD), pppiocsflags, uintptr(unsafe.Pointer(&flags)))
	if errno != 0 {
		return fmt.Errorf("kernel: PPPIOCSFLAGS: %w", errno)
	}
	return nil
}

// ifreqMTU mirrors the fields of struct ifreq that SIOCGIFMTU/SIOCSIFMTU
// actually touch: a 16-byte interface name followed by the MTU as an int.
// struct ifreq is a union past the name field; declaring only the MTU
// slot (and padding out to the kernel's full struct size) is sufficient
// for these two ioctls.
type ifreqMTU struct {
	name [unix.IFNAMSIZ]byte
	mtu  int32
	_    [20]byte // pad to sizeof(struct ifreq) (40 bytes on 64-bit)
}

func (c *Config) GetMTU() (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return 0, fmt.Errorf("kernel: socket: %w", err)
	}
	defer unix.Close(fd)

	var ifr ifreqMTU
	copy(ifr.name[:], c.IfName)
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), unix.SIOCGIFMTU, uintptr(unsafe.Pointer(&ifr)))
	if errno != 0 {
		return 0, fmt.Errorf("kernel: SIOCGIFMTU: %w", errno)
	}
	return int(ifr.mtu), nil
}

func (c *Config) SetMTU(mtu int) error {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return fmt.Errorf("kernel: socket: %w", err)
	}
	defer unix.Close(fd)

	var ifr ifreqMTU
	copy(ifr.name[:], c.IfName)
	ifr.mtu = int32(mtu)
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), unix.SIOCSIFMTU, uintptr(unsafe.Pointer(&ifr)))
	if errno != 0 {
		return fmt.Errorf("kernel: SIOCSIFMTU: %w", errno)
	}
	return nil
}
