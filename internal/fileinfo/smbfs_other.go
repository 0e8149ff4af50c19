//go:build !linux

package fileinfo

// Direct SMB access is only wired on Linux; elsewhere shares go through
// the OS (UNC paths on Windows) and LocalFS.
func newSMBProvider(host, share string, c *Credentials) VFS {
	return LocalFS{}
}
