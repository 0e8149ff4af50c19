package fileinfo

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path"
	"runtime"
	"strings"

	"shellview/internal/constants"
)

// Scheme is the logical protocol of a display path.
type Scheme string

const (
	SchemeFile    Scheme = "file"
	SchemeSMB     Scheme = "smb"
	SchemeArchive Scheme = "archive"
)

// Parsed is a normalized view of an input path. Display is the
// canonical string used as item identity (smb://host/share/seg...,
// /path/a.zip!/inner); Native is the provider-native path used for I/O.
type Parsed struct {
	Scheme   Scheme
	Host     string
	Share    string
	Segments []string
	Archive  string // host path of the archive for SchemeArchive
	Raw      string
	Display  string
	Native   string
	Provider string // "local" | "smb" | "archive"
	User     string
	Password string
	Domain   string
}

var errUnsupportedSMB = errors.New("smb path needs //host/share")

// ResolveRead maps input to a VFS and a provider-native path.
func ResolveRead(input string) (VFS, Parsed, error) {
	return ResolveReadContext(context.Background(), input)
}

// ResolveReadContext is ResolveRead with a context bounding archive
// extraction.
func ResolveReadContext(ctx context.Context, input string) (VFS, Parsed, error) {
	raw := strings.TrimSpace(input)
	local := Parsed{Raw: input, Scheme: SchemeFile, Display: raw, Native: raw, Provider: "local"}
	if raw == "" {
		return LocalFS{}, local, nil
	}
	if archive, inner, ok := SplitArchivePath(raw); ok {
		return resolveArchive(ctx, input, archive, inner)
	}
	if runtime.GOOS == "windows" {
		return resolveWindows(input, raw)
	}
	if isSMBURL(raw) || strings.HasPrefix(raw, "//") {
		return resolveSMB(input, raw)
	}
	return LocalFS{}, local, nil
}

func resolveArchive(ctx context.Context, input, archive, inner string) (VFS, Parsed, error) {
	p := Parsed{
		Scheme:   SchemeArchive,
		Archive:  archive,
		Raw:      input,
		Display:  JoinArchivePath(archive, inner),
		Native:   inner,
		Provider: "archive",
	}
	a, err := NewArchiveFS(ctx, archive)
	if err != nil {
		return nil, p, err
	}
	return a, p, nil
}

// resolveWindows keeps UNC paths on LocalFS; smb:// is converted to UNC.
func resolveWindows(input, raw string) (VFS, Parsed, error) {
	if isSMBURL(raw) {
		raw = smbURLToUNC(raw)
	}
	if isUNC(raw) {
		p := parseUNC(raw)
		p.Raw = input
		p.Provider = "local"
		return LocalFS{}, p, nil
	}
	return LocalFS{}, Parsed{Raw: input, Scheme: SchemeFile, Display: raw, Native: raw, Provider: "local"}, nil
}

// resolveSMB prefers an existing CIFS mount and falls back to SMBFS.
func resolveSMB(input, raw string) (VFS, Parsed, error) {
	host, share, segs, user, pass, domain := parseSMBURL(raw)
	if host == "" || share == "" {
		return nil, Parsed{Raw: input, Scheme: SchemeSMB, Display: canonicalizeSMB(raw), Provider: "smb"}, errUnsupportedSMB
	}
	p := Parsed{
		Scheme:   SchemeSMB,
		Host:     host,
		Share:    share,
		Segments: segs,
		Raw:      input,
		Display:  smbDisplay(host, share, segs),
		User:     user,
		Password: pass,
		Domain:   domain,
	}
	if mp, ok := findSMBMount(host, share); ok {
		p.Native = mp
		if len(segs) > 0 {
			p.Native = "/" + path.Join(strings.TrimPrefix(mp, "/"), path.Join(segs...))
		}
		p.Provider = "local"
		return LocalFS{}, p, nil
	}
	p.Native = "/" + path.Join(segs...)
	p.Provider = "smb"
	if user != "" || pass != "" || domain != "" {
		return newSMBProvider(host, share, &Credentials{Domain: domain, Username: user, Password: pass}), p, nil
	}
	return newSMBProvider(host, share, nil), p, nil
}

func smbDisplay(host, share string, segs []string) string {
	d := "smb://" + path.Join(host, share)
	if len(segs) > 0 {
		d += "/" + path.Join(segs...)
	}
	return d
}

// SplitArchivePath splits "/x/a.zip!/inner/f" into the archive path and
// the inner path ("" for the archive root).
func SplitArchivePath(p string) (archive, inner string, ok bool) {
	i := strings.Index(p, constants.ArchiveSeparator)
	if i <= 0 {
		return "", "", false
	}
	return p[:i], strings.Trim(p[i+len(constants.ArchiveSeparator):], "/"), true
}

// JoinArchivePath is the inverse of SplitArchivePath.
func JoinArchivePath(archive, inner string) string {
	return archive + constants.ArchiveSeparator + strings.Trim(inner, "/")
}

func isUNC(p string) bool {
	return strings.HasPrefix(p, `\\`)
}

func isSMBURL(p string) bool {
	return strings.HasPrefix(strings.ToLower(p), "smb://")
}

// smbURLToUNC converts smb://[creds@]host/share/seg to \\host\share\seg.
func smbURLToUNC(u string) string {
	s := u[len("smb://"):]
	if at := strings.Index(s, "@"); at >= 0 {
		s = s[at+1:]
	}
	parts := strings.Split(strings.Trim(s, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return `\\`
	}
	return `\\` + strings.Join(parts, `\`)
}

// parseUNC accepts \\host\share\... and \\?\UNC\host\share\...
func parseUNC(unc string) Parsed {
	u := strings.TrimPrefix(unc, `\\?\UNC\`)
	u = strings.TrimPrefix(u, `\\`)
	seg := strings.Split(u, `\`)
	p := Parsed{Scheme: SchemeSMB, Raw: unc, Native: unc}
	if len(seg) > 0 {
		p.Host = seg[0]
	}
	if len(seg) > 1 {
		p.Share = seg[1]
	}
	if len(seg) > 2 {
		p.Segments = seg[2:]
	}
	p.Display = smbDisplay(p.Host, p.Share, p.Segments)
	return p
}

func canonicalizeSMB(url string) string {
	s := strings.ReplaceAll(strings.TrimSpace(url), `\`, "/")
	if !isSMBURL(s) {
		s = "smb://" + strings.TrimPrefix(s, "//")
	}
	return s
}

// parseSMBURL extracts host, share, segments and credentials from
// smb://[domain;user:pass@]host/share/... or //host/share/...
func parseSMBURL(u string) (host, share string, segments []string, user, pass, domain string) {
	s := strings.TrimSpace(u)
	if strings.HasPrefix(s, "//") {
		s = "smb:" + s
	}
	if !isSMBURL(s) {
		return
	}
	t := s[len("smb://"):]
	if at := strings.LastIndex(t, "@"); at >= 0 {
		cred := t[:at]
		t = t[at+1:]
		if colon := strings.Index(cred, ":"); colon >= 0 {
			pass = cred[colon+1:]
			cred = cred[:colon]
		}
		if i := strings.IndexAny(cred, `;\`); i >= 0 {
			domain, user = cred[:i], cred[i+1:]
		} else {
			user = cred
		}
	}
	parts := strings.Split(strings.TrimSuffix(t, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", nil, "", "", ""
	}
	host, share = parts[0], parts[1]
	if len(parts) > 2 {
		segments = parts[2:]
	}
	return
}

// mountEntry is one line of /proc/self/mountinfo.
type mountEntry struct {
	FSType     string
	Source     string
	MountPoint string
	SuperOpts  string
	Opts       string
}

func readMountInfo() ([]mountEntry, error) {
	f, err := os.Open("/proc/self/mountinfo")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []mountEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if e, ok := parseMountInfo(scanner.Text()); ok {
			out = append(out, e)
		}
	}
	return out, scanner.Err()
}

func isSMBFSType(fsType string) bool {
	l := strings.ToLower(fsType)
	return l == "cifs" || strings.Contains(l, "smb")
}

// findSMBMount finds a CIFS/SMB mount of host/share by its source
// (//host/share) or its unc= option.
func findSMBMount(host, share string) (mountPoint string, ok bool) {
	mounts, err := readMountInfo()
	if err != nil {
		return "", false
	}
	for _, m := range mounts {
		if !isSMBFSType(m.FSType) {
			continue
		}
		if h, s := parseSourceUNC(m.Source); h != "" && strings.EqualFold(h, host) && strings.EqualFold(s, share) {
			return m.MountPoint, true
		}
		unc := findUNCOption(m.SuperOpts)
		if unc == "" {
			unc = findUNCOption(m.Opts)
		}
		if h, s := parseBackslashUNC(unc); h != "" && strings.EqualFold(h, host) && strings.EqualFold(s, share) {
			return m.MountPoint, true
		}
	}
	return "", false
}

// parseMountInfo splits a mountinfo line at the " - " separator.
func parseMountInfo(line string) (mountEntry, bool) {
	parts := strings.SplitN(line, " - ", 2)
	if len(parts) != 2 {
		return mountEntry{}, false
	}
	left := strings.Fields(parts[0])
	right := strings.Fields(parts[1])
	if len(left) < 6 || len(right) < 3 {
		return mountEntry{}, false
	}
	return mountEntry{
		MountPoint: decodeMountPoint(left[4]),
		Opts:       strings.Join(left[5:], " "),
		FSType:     right[0],
		Source:     right[1],
		SuperOpts:  strings.Join(right[2:], " "),
	}, true
}

// decodeMountPoint undoes the octal escapes used by mountinfo.
func decodeMountPoint(s string) string {
	r := strings.NewReplacer(`\040`, " ", `\011`, "\t", `\012`, "\n", `\134`, `\`)
	return r.Replace(s)
}

func parseSourceUNC(src string) (host, share string) {
	if !strings.HasPrefix(src, "//") {
		return "", ""
	}
	parts := strings.Split(src[2:], "/")
	if len(parts) >= 2 {
		return parts[0], parts[1]
	}
	return "", ""
}

func findUNCOption(opts string) string {
	for _, part := range strings.Split(opts, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && strings.EqualFold(k, "unc") {
			return v
		}
	}
	return ""
}

func parseBackslashUNC(unc string) (host, share string) {
	parts := strings.Split(strings.TrimPrefix(unc, `\\`), `\`)
	if len(parts) >= 2 {
		return parts[0], parts[1]
	}
	return "", ""
}
