//go:build linux

package fileinfo

import (
	"io"
	"io/fs"
	"net"
	"os"
	"strings"
	"time"

	"github.com/hirochachacha/go-smb2"
)

// SMBFS implements VFS for direct SMB access on Linux. Every call opens
// its own session; listings over SMB are not cached here.
type SMBFS struct {
	host  string
	share string
	cred  *Credentials
}

// newSMBProvider returns a share VFS. A nil c looks credentials up per
// call through the chain.
func newSMBProvider(host, share string, c *Credentials) VFS {
	return SMBFS{host: host, share: share, cred: c}
}

func (SMBFS) Capabilities() Capabilities { return Capabilities{FastList: false, Watch: false} }

// smbMount is one authenticated, mounted share. close releases it.
type smbMount struct {
	conn  net.Conn
	sess  *smb2.Session
	share *smb2.Share
}

func (m *smbMount) close() {
	m.share.Umount()
	m.sess.Logoff()
	m.conn.Close()
}

func (s SMBFS) mount(relPath string) (*smbMount, error) {
	creds := Credentials{}
	if s.cred != nil {
		creds = *s.cred
	} else {
		creds = getCredentials(s.host, s.share, relPath)
	}

	d := &smb2.Dialer{
		Initiator: &smb2.NTLMInitiator{
			User:     creds.Username,
			Password: creds.Password,
			Domain:   creds.Domain,
		},
	}

	conn, err := net.DialTimeout("tcp", net.JoinHostPort(s.host, "445"), 5*time.Second)
	if err != nil {
		return nil, err
	}
	sess, err := d.Dial(conn)
	if err != nil {
		conn.Close()
		s.forgetOnAuthError(err)
		return nil, err
	}
	share, err := sess.Mount(s.share)
	if err != nil {
		sess.Logoff()
		conn.Close()
		s.forgetOnAuthError(err)
		return nil, err
	}
	rememberCredentials(s.host, s.share, creds)
	return &smbMount{conn: conn, sess: sess, share: share}, nil
}

func (s SMBFS) forgetOnAuthError(err error) {
	if isAuthError(err) {
		ClearCachedCredentials(s.host, s.share)
	}
}

// shareRelative strips leading separators; go-smb2 rejects them.
func shareRelative(p string) string {
	return strings.TrimLeft(p, `/\`)
}

func (s SMBFS) ReadDir(relPath string) ([]os.DirEntry, error) {
	m, err := s.mount(relPath)
	if err != nil {
		return nil, err
	}
	defer m.close()

	fis, err := m.share.ReadDir(shareRelative(relPath))
	if err != nil {
		s.forgetOnAuthError(err)
		return nil, err
	}
	out := make([]os.DirEntry, 0, len(fis))
	for _, fi := range fis {
		if fi.Name() == "." {
			continue
		}
		out = append(out, fs.FileInfoToDirEntry(fi))
	}
	return out, nil
}

// Stat returns file info for a path relative to the share.
func (s SMBFS) Stat(relPath string) (os.FileInfo, error) {
	m, err := s.mount(relPath)
	if err != nil {
		return nil, err
	}
	defer m.close()

	p := shareRelative(relPath)
	if p == "" {
		p = "."
	}
	fi, err := m.share.Stat(p)
	if err != nil {
		s.forgetOnAuthError(err)
		return nil, err
	}
	return fi, nil
}

// Lstat is Stat; links are resolved by the server.
func (s SMBFS) Lstat(relPath string) (os.FileInfo, error) { return s.Stat(relPath) }

// Join joins relative path elements using forward slashes.
func (SMBFS) Join(elem ...string) string { return "/" + strings.TrimLeft(strings.Join(elem, "/"), "/") }

// Base returns last element after splitting by '/'.
func (SMBFS) Base(p string) string {
	p = strings.TrimSuffix(p, "/")
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return p
	}
	return p[idx+1:]
}

// smbFile keeps the session alive until the reader is closed.
type smbFile struct {
	*smb2.File
	m *smbMount
}

func (f smbFile) Close() error {
	err := f.File.Close()
	f.m.close()
	return err
}

// Open opens a file for reading; the caller must Close it.
func (s SMBFS) Open(relPath string) (io.ReadCloser, error) {
	m, err := s.mount(relPath)
	if err != nil {
		return nil, err
	}
	f, err := m.share.Open(shareRelative(relPath))
	if err != nil {
		m.close()
		s.forgetOnAuthError(err)
		return nil, err
	}
	return smbFile{File: f, m: m}, nil
}

func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	e := strings.ToLower(err.Error())
	return strings.Contains(e, "logon is invalid") ||
		strings.Contains(e, "bad username") ||
		strings.Contains(e, "authentication") ||
		strings.Contains(e, "status_logon_failure") ||
		strings.Contains(e, "access is denied")
}
