//go:build linux

package fio

import "syscall"

// Superblock magic numbers for filesystems with weak asynchronous I/O
// support. libaio degrades to synchronous submission on these, so probing
// them up front avoids burning a timeout per scenario.
const (
	nfsSuperMagic  = 0x6969
	smbSuperMagic  = 0x517b
	cifsSuperMagic = 0xff534d42
	smb2SuperMagic = 0xfe534d42
)

// ProbeFilesystem classifies the filesystem backing dir.
func ProbeFilesystem(dir string) FilesystemKind {
	var st syscall.Statfs_t
	if err := syscall.Statfs(dir, &st); err != nil {
		return FSUnknown
	}
	switch uint32(st.Type) {
	case nfsSuperMagic, smbSuperMagic, cifsSuperMagic, smb2SuperMagic:
		return FSNetwork
	}
	return FSLocal
}
