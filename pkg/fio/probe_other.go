//go:build !linux

package fio

// ProbeFilesystem has no superblock probe off Linux; callers fall back to
// the default asynchronous policy.
func ProbeFilesystem(dir string) FilesystemKind {
	return FSUnknown
}
