package fileinfo

import (
	"context"
	"errors"
	"image"
	"image/color"
	"iter"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"shellview/internal/constants"
	apperrors "shellview/internal/errors"
	"shellview/internal/shell"
	"shellview/internal/thumbcache"
)

// ErrUnsupportedProperty is returned for property keys the provider does
// not know.
var ErrUnsupportedProperty = errors.New("property not supported")

// Options configures a Provider.
type Options struct {
	Thumbnails     *thumbcache.Cache // nil keeps thumbnails in memory only
	HiddenPatterns []string          // doublestar patterns matched against names
	Locations      []string          // extra folders listed under Computer
}

// Provider is the shell item provider for local folders, SMB shares and
// archives.
type Provider struct {
	thumbs    *thumbcache.Cache
	hidden    []string
	locations []string
	icons     *classIconCache
	drives    func() ([]Drive, error)

	debugPrint func(format string, args ...interface{})
}

var _ shell.Provider = (*Provider)(nil)

// NewProvider creates a provider.
func NewProvider(opts Options) *Provider {
	return &Provider{
		thumbs:    opts.Thumbnails,
		hidden:    opts.HiddenPatterns,
		locations: opts.Locations,
		icons:     newClassIconCache(),
		drives:    ListDrives,
	}
}

// SetDebug sets the debug print function.
func (p *Provider) SetDebug(debugFunc func(format string, args ...interface{})) {
	p.debugPrint = debugFunc
}

func (p *Provider) dbg(format string, args ...interface{}) {
	if p.debugPrint != nil {
		p.debugPrint("fileinfo: "+format, args...)
	}
}

// Identify maps a display path to its identity without I/O.
func (p *Provider) Identify(path string) shell.Identity {
	return shell.Identity(CleanPath(path))
}

// Root returns the Computer container.
func (p *Provider) Root() *shell.ItemRef {
	it := shell.NewItem(constants.ComputerIdentity, constants.ComputerName, shell.KindVirtual, shell.FlagFolder)
	it.ParsingPath = constants.ComputerIdentity
	it.ParentPath = constants.ComputerIdentity
	it.PerceivedType = shell.PerceivedFolder
	return it
}

// IsRoot reports whether folder is the Computer container.
func (p *Provider) IsRoot(folder *shell.ItemRef) bool {
	return folder != nil && folder.ID == constants.ComputerIdentity
}

// Item resolves a single display path.
func (p *Provider) Item(ctx context.Context, path string) (*shell.ItemRef, error) {
	clean := CleanPath(path)
	if clean == "" {
		return nil, apperrors.NewProviderError("item", path, "empty path", apperrors.ErrPathNotFound)
	}
	if IsComputer(clean) {
		return p.Root(), nil
	}
	vfs, parsed, err := ResolveReadContext(ctx, clean)
	if err != nil {
		return nil, apperrors.NewProviderError("item", path, "cannot resolve path", apperrors.Classify(err))
	}
	if parsed.User != "" || parsed.Password != "" {
		PutCachedCredentials(parsed.Host, parsed.Share, Credentials{Domain: parsed.Domain, Username: parsed.User, Password: parsed.Password})
	}
	fi, err := vfs.Lstat(parsed.Native)
	if err != nil {
		return nil, apperrors.NewProviderError("item", path, "cannot stat", apperrors.Classify(err))
	}
	link := fi.Mode()&os.ModeSymlink != 0
	targetDir := fi.IsDir()
	if link {
		if target, err := vfs.Stat(parsed.Native); err == nil {
			targetDir = target.IsDir()
		}
	}
	display := CleanPath(parsed.Display)
	return p.newItem(display, ParentPath(display), BaseName(display), parsed, fi, link, targetDir), nil
}

// Enumerate lists the children of folder. An archive file is listed as
// the folder of its contents.
func (p *Provider) Enumerate(ctx context.Context, folder *shell.ItemRef) iter.Seq2[*shell.ItemRef, error] {
	return func(yield func(*shell.ItemRef, error) bool) {
		if p.IsRoot(folder) {
			p.enumerateComputer(ctx, yield)
			return
		}
		path := folder.ParsingPath
		if !folder.IsFolder() && IsArchive(folder.DisplayName) {
			path = JoinArchivePath(path, "")
		}
		vfs, parsed, err := ResolveReadContext(ctx, path)
		if err != nil {
			yield(nil, apperrors.NewProviderError("enumerate", path, "cannot resolve path", apperrors.Classify(err)))
			return
		}
		entries, err := readDir(vfs, parsed)
		if err != nil {
			yield(nil, apperrors.NewProviderError("enumerate", path, "cannot list folder", apperrors.Classify(err)))
			return
		}
		parent := CleanPath(parsed.Display)
		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			it, err := p.entryItem(vfs, parsed, parent, e)
			if err != nil {
				// vanished between ReadDir and Info
				p.dbg("skip %s: %v", e.Name(), err)
				continue
			}
			if !yield(it, nil) {
				return
			}
		}
	}
}

// readDir retries once after connecting a share with stored credentials
// when Windows denies access to a UNC path.
func readDir(vfs VFS, parsed Parsed) ([]os.DirEntry, error) {
	entries, err := vfs.ReadDir(parsed.Native)
	if err != nil && runtime.GOOS == "windows" && (isUNC(parsed.Native) || parsed.Scheme == SchemeSMB) && isWinAccessError(err) {
		if cerr := ensureWindowsConnection(parsed, parsed.Native); cerr == nil {
			return vfs.ReadDir(parsed.Native)
		} else if IsWindowsCredentialConflict(cerr) {
			return nil, cerr
		}
	}
	return entries, err
}

func (p *Provider) entryItem(vfs VFS, parsed Parsed, parent string, e os.DirEntry) (*shell.ItemRef, error) {
	name := e.Name()
	fi, err := e.Info()
	if err != nil {
		return nil, err
	}
	native := vfs.Join(parsed.Native, name)
	link := e.Type()&os.ModeSymlink != 0
	targetDir := fi.IsDir()
	if link {
		if target, err := vfs.Stat(native); err == nil {
			targetDir = target.IsDir()
		}
	}
	child := parsed
	child.Native = native
	return p.newItem(JoinPath(parent, name), parent, name, child, fi, link, targetDir), nil
}

func (p *Provider) newItem(display, parent, name string, parsed Parsed, fi os.FileInfo, link, isDir bool) *shell.ItemRef {
	var flags shell.Flags
	kind := shell.KindFileSystem
	if isDir {
		flags |= shell.FlagFolder
	}
	if link {
		flags |= shell.FlagLink
		kind = shell.KindLink
	}
	if parsed.Scheme == SchemeSMB {
		flags |= shell.FlagNetwork
	}
	if parsed.Scheme == SchemeArchive {
		kind = shell.KindVirtual
	}
	if p.isHidden(name, parsed) {
		flags |= shell.FlagHidden
	}

	it := shell.NewItem(shell.Identity(display), name, kind, flags)
	it.ParsingPath = display
	it.ParentPath = parent
	it.Modified = fi.ModTime()
	if !isDir {
		it.Extension = strings.ToLower(filepath.Ext(name))
		it.Size = fi.Size()
	}
	it.PerceivedType = Perceived(it.Extension, isDir)
	if !isDir && (thumbnailable(it.Extension) || prefersInstanceIcon(it.Extension)) {
		it.IconType = shell.IconPerInstance
	}
	return it
}

// isHidden checks the dot prefix, the Windows hidden attribute for host
// paths, and the configured patterns.
func (p *Provider) isHidden(name string, parsed Parsed) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	if runtime.GOOS == "windows" && parsed.Provider == "local" && IsWindowsHidden(parsed.Native) {
		return true
	}
	for _, pattern := range p.hidden {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func (p *Provider) enumerateComputer(ctx context.Context, yield func(*shell.ItemRef, error) bool) {
	seen := map[shell.Identity]bool{}
	drives, err := p.drives()
	if err != nil {
		yield(nil, apperrors.NewProviderError("enumerate", constants.ComputerIdentity, "cannot list drives", err))
		return
	}
	for _, d := range drives {
		it := p.driveItem(d)
		if seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		if !yield(it, nil) {
			return
		}
	}
	locations := slices.Clone(p.locations)
	if home, err := os.UserHomeDir(); err == nil {
		locations = append([]string{home}, locations...)
	}
	for _, loc := range locations {
		if ctx.Err() != nil {
			yield(nil, ctx.Err())
			return
		}
		it, err := p.Item(ctx, loc)
		if err != nil {
			p.dbg("skip location %s: %v", loc, err)
			continue
		}
		if seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		it.ParentPath = constants.ComputerIdentity
		if !yield(it, nil) {
			return
		}
	}
}

// DriveItem resolves the Computer root entry of the volume mounted at
// path, as the root enumeration lists it.
func (p *Provider) DriveItem(ctx context.Context, path string) (*shell.ItemRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	drives, err := p.drives()
	if err != nil {
		return nil, apperrors.NewProviderError("drive", path, "cannot list drives", err)
	}
	clean := CleanPath(path)
	for _, d := range drives {
		if CleanPath(d.Path) == clean {
			return p.driveItem(d), nil
		}
	}
	return nil, apperrors.NewProviderError("drive", path, "not a mounted volume", apperrors.ErrPathNotFound)
}

func (p *Provider) driveItem(d Drive) *shell.ItemRef {
	flags := shell.FlagFolder
	perceived := shell.PerceivedDrive
	if d.Network {
		flags |= shell.FlagNetwork
		perceived = shell.PerceivedShare
	}
	display := CleanPath(d.Path)
	it := shell.NewItem(shell.Identity(display), d.Label, shell.KindVirtual, flags)
	it.ParsingPath = display
	it.ParentPath = constants.ComputerIdentity
	it.PerceivedType = perceived
	return it
}

// ClassIcon returns the cached class icon, or nil for items whose icon
// depends on the file itself.
func (p *Provider) ClassIcon(item *shell.ItemRef, size int) image.Image {
	if item.IconType == shell.IconPerInstance {
		return nil
	}
	return p.icons.get(item.PerceivedType, item.Extension, size)
}

// FallbackIcon is the generic application icon.
func (p *Provider) FallbackIcon(size int) image.Image {
	return p.icons.get(shell.PerceivedApplication, "", size)
}

// Icon resolves the per-instance icon of an item.
func (p *Provider) Icon(ctx context.Context, item *shell.ItemRef, size int) (image.Image, error) {
	if item.IconType != shell.IconPerInstance {
		return p.icons.get(item.PerceivedType, item.Extension, size), nil
	}
	if thumbnailable(item.Extension) {
		src, err := p.decode(ctx, item)
		if err != nil {
			return nil, apperrors.NewResolutionError("icon", item.ParsingPath, err)
		}
		return letterbox(src, size, color.Transparent), nil
	}
	_, parsed, err := ResolveReadContext(ctx, item.ParsingPath)
	if err != nil {
		return nil, apperrors.NewResolutionError("icon", item.ParsingPath, err)
	}
	img, err := platformInstanceIcon(parsed.Native, size)
	if err != nil {
		return nil, apperrors.NewResolutionError("icon", item.ParsingPath, err)
	}
	if img == nil {
		return p.icons.get(item.PerceivedType, item.Extension, size), nil
	}
	return img, nil
}

func (p *Provider) decode(ctx context.Context, item *shell.ItemRef) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vfs, parsed, err := ResolveReadContext(ctx, item.ParsingPath)
	if err != nil {
		return nil, err
	}
	rc, err := vfs.Open(parsed.Native)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return decodeImage(rc)
}

// Thumbnail renders a letterboxed preview. In cache-only mode only the
// persistent thumbnail cache is consulted; the source is never read.
// A nil image with a nil error means the item has no thumbnail.
func (p *Provider) Thumbnail(ctx context.Context, item *shell.ItemRef, size int, mode shell.RetrievalMode) (image.Image, error) {
	if item.IsFolder() || !thumbnailable(item.Extension) {
		return nil, nil
	}
	if mode == shell.RetrieveCacheOnly {
		if p.thumbs == nil {
			return nil, nil
		}
		img, ok, err := p.thumbs.Lookup(ctx, item.ParsingPath, size)
		if err != nil || !ok {
			return nil, err
		}
		return img, nil
	}

	key := thumbcache.Key{Source: item.ParsingPath, ModTime: item.Modified, Size: item.Size, Dim: size}
	if p.thumbs != nil {
		if img, ok, err := p.thumbs.Get(ctx, key); err == nil && ok {
			return img, nil
		} else if err != nil {
			p.dbg("thumbnail cache: %v", err)
		}
	}
	src, err := p.decode(ctx, item)
	if err != nil {
		return nil, apperrors.NewResolutionError("thumbnail", item.ParsingPath, err)
	}
	thumb := letterbox(src, size, color.White)
	if p.thumbs != nil {
		if err := p.thumbs.Put(ctx, key, thumb); err != nil {
			p.dbg("store thumbnail %s: %v", item.ParsingPath, err)
		}
	}
	return thumb, nil
}

func (p *Provider) stat(ctx context.Context, item *shell.ItemRef) (os.FileInfo, error) {
	if item.ParsingPath == "" || IsComputer(item.ParsingPath) {
		return nil, apperrors.ErrPathNotFound
	}
	vfs, parsed, err := ResolveReadContext(ctx, item.ParsingPath)
	if err != nil {
		return nil, err
	}
	return vfs.Stat(parsed.Native)
}

// Overlay returns the badge index: link, shared (network) or read-only.
func (p *Provider) Overlay(ctx context.Context, item *shell.ItemRef) (int, error) {
	switch {
	case item.IsLink():
		return constants.OverlayLink, nil
	case item.IsNetworkPath():
		return constants.OverlayShared, nil
	case item.Kind == shell.KindVirtual:
		return constants.OverlayNone, nil
	}
	fi, err := p.stat(ctx, item)
	if err != nil {
		return constants.Unresolved, apperrors.NewResolutionError("overlay", item.ParsingPath, err)
	}
	if !fi.IsDir() && fi.Mode().Perm()&0222 == 0 {
		return constants.OverlayReadOnly, nil
	}
	return constants.OverlayNone, nil
}

// IsShieldCandidate reports whether an extension can carry a shield.
func IsShieldCandidate(ext string) bool {
	return slices.Contains(constants.ShieldExtensions, strings.ToLower(ext))
}

// Shield returns ShieldElevated for executables that run elevated.
func (p *Provider) Shield(ctx context.Context, item *shell.ItemRef) (int, error) {
	if item.IsFolder() || !IsShieldCandidate(item.Extension) {
		return constants.ShieldNone, nil
	}
	fi, err := p.stat(ctx, item)
	if err != nil {
		return constants.Unresolved, apperrors.NewResolutionError("shield", item.ParsingPath, err)
	}
	if needsElevation(item.DisplayName, fi) {
		return constants.ShieldElevated, nil
	}
	return constants.ShieldNone, nil
}

// Property resolves one column value. A nil value with a nil error
// means the item has no value for key (e.g. the size of a folder).
func (p *Provider) Property(ctx context.Context, item *shell.ItemRef, key shell.PropertyKey) (any, error) {
	switch key {
	case shell.KeyName:
		return item.DisplayName, nil
	case shell.KeyItemType:
		return p.typeName(item), nil
	case shell.KeyPerceivedType:
		return item.PerceivedType, nil
	case shell.KeyExtension:
		return item.Extension, nil
	case shell.KeySize, shell.KeyDateModified, shell.KeyDateCreated, shell.KeyAttributes:
	default:
		return nil, ErrUnsupportedProperty
	}

	if item.Kind == shell.KindVirtual && p.isDrive(item) {
		return nil, nil
	}
	fi, err := p.stat(ctx, item)
	if err != nil {
		return nil, apperrors.NewResolutionError("property", item.ParsingPath, err)
	}
	switch key {
	case shell.KeySize:
		if fi.IsDir() {
			return nil, nil
		}
		return fi.Size(), nil
	case shell.KeyDateModified:
		return fi.ModTime(), nil
	case shell.KeyDateCreated:
		if t, ok := creationTime(fi); ok {
			return t, nil
		}
		return nil, nil
	default:
		return fi.Mode().String(), nil
	}
}

func (p *Provider) isDrive(item *shell.ItemRef) bool {
	return item.PerceivedType == shell.PerceivedDrive || item.PerceivedType == shell.PerceivedShare
}

func (p *Provider) typeName(item *shell.ItemRef) string {
	switch {
	case item.PerceivedType == shell.PerceivedDrive:
		return "Local Disk"
	case item.PerceivedType == shell.PerceivedShare:
		return "Network Drive"
	}
	return TypeName(item.Extension, item.IsFolder())
}
