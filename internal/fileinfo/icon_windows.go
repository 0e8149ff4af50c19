//go:build windows

package fileinfo

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Icons come from SHGetFileInfo; GDI draws the HICON into a 32-bit
// top-down DIB which is copied out as RGBA.

var (
	shell32           = windows.NewLazySystemDLL("shell32.dll")
	procSHGetFileInfo = shell32.NewProc("SHGetFileInfoW")

	user32          = windows.NewLazySystemDLL("user32.dll")
	procDestroyIcon = user32.NewProc("DestroyIcon")
	procDrawIconEx  = user32.NewProc("DrawIconEx")

	gdi32                  = windows.NewLazySystemDLL("gdi32.dll")
	procCreateCompatibleDC = gdi32.NewProc("CreateCompatibleDC")
	procDeleteDC           = gdi32.NewProc("DeleteDC")
	procCreateDIBSection   = gdi32.NewProc("CreateDIBSection")
	procSelectObject       = gdi32.NewProc("SelectObject")
	procDeleteObject       = gdi32.NewProc("DeleteObject")
)

const (
	shgfiIcon              = 0x100
	shgfiUseFileAttributes = 0x010
	shgfiSmallIcon         = 0x001

	fileAttributeNormal = 0x80
	diNormal            = 0x0003
)

type shFileInfo struct {
	icon        windows.Handle
	index       int32
	attributes  uint32
	displayName [windows.MAX_PATH]uint16
	typeName    [80]uint16
}

type bitmapInfoHeader struct {
	size          uint32
	width         int32
	height        int32
	planes        uint16
	bitCount      uint16
	compression   uint32
	sizeImage     uint32
	xPelsPerMeter int32
	yPelsPerMeter int32
	clrUsed       uint32
	clrImportant  uint32
}

var errNoIcon = errors.New("shell returned no icon")

// Icons come from the shell image list.
const platformClassIcons = true

func platformClassIcon(ext string, size int) (image.Image, error) {
	if ext == "" {
		return nil, nil
	}
	return drawShellIcon(ext, fileAttributeNormal, shgfiUseFileAttributes, size)
}

func platformInstanceIcon(path string, size int) (image.Image, error) {
	return drawShellIcon(path, 0, 0, size)
}

// prefersInstanceIcon reports whether a file of this extension carries its
// own icon: executables embed one, shortcuts show their target's, and .ico
// files are icons themselves.
func prefersInstanceIcon(ext string) bool {
	switch strings.ToLower(ext) {
	case ".exe", ".lnk", ".ico":
		return true
	default:
		return false
	}
}

// nativeIconSize is the shell image list size closest to size.
func nativeIconSize(size int) int {
	switch {
	case size <= 16:
		return 16
	case size <= 24:
		return 24
	default:
		return 32
	}
}

// drawShellIcon fetches the icon for name and letterboxes it to size.
func drawShellIcon(name string, attrs, flags uint32, size int) (image.Image, error) {
	native := nativeIconSize(size)
	flags |= shgfiIcon
	if native <= 16 {
		flags |= shgfiSmallIcon
	}
	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, err
	}
	var sfi shFileInfo
	ret, _, callErr := procSHGetFileInfo.Call(
		uintptr(unsafe.Pointer(namePtr)),
		uintptr(attrs),
		uintptr(unsafe.Pointer(&sfi)),
		unsafe.Sizeof(sfi),
		uintptr(flags),
	)
	if ret == 0 || sfi.icon == 0 {
		if errno, ok := callErr.(windows.Errno); ok && errno != 0 {
			return nil, fmt.Errorf("SHGetFileInfo %s: %w", name, errno)
		}
		return nil, errNoIcon
	}
	defer procDestroyIcon.Call(uintptr(sfi.icon))

	img, err := rasterize(sfi.icon, native)
	if err != nil {
		return nil, err
	}
	if native == size {
		return img, nil
	}
	return letterbox(img, size, color.Transparent), nil
}

// rasterize draws hicon at size x size and returns the pixels as RGBA.
func rasterize(hicon windows.Handle, size int) (image.Image, error) {
	dc, _, _ := procCreateCompatibleDC.Call(0)
	if dc == 0 {
		return nil, errors.New("CreateCompatibleDC failed")
	}
	defer procDeleteDC.Call(dc)

	hdr := bitmapInfoHeader{
		width:    int32(size),
		height:   -int32(size),
		planes:   1,
		bitCount: 32,
	}
	hdr.size = uint32(unsafe.Sizeof(hdr))
	var bits unsafe.Pointer
	bmp, _, _ := procCreateDIBSection.Call(dc, uintptr(unsafe.Pointer(&hdr)), 0, uintptr(unsafe.Pointer(&bits)), 0, 0)
	if bmp == 0 || bits == nil {
		return nil, errors.New("CreateDIBSection failed")
	}
	defer procDeleteObject.Call(bmp)

	prev, _, _ := procSelectObject.Call(dc, bmp)
	if prev != 0 {
		defer procSelectObject.Call(dc, prev)
	}
	if ok, _, _ := procDrawIconEx.Call(dc, 0, 0, uintptr(hicon), uintptr(size), uintptr(size), 0, 0, diNormal); ok == 0 {
		return nil, errors.New("DrawIconEx failed")
	}

	// BGRA to RGBA
	src := unsafe.Slice((*byte)(bits), size*size*4)
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(src); i += 4 {
		img.Pix[i+0] = src[i+2]
		img.Pix[i+1] = src[i+1]
		img.Pix[i+2] = src[i+0]
		img.Pix[i+3] = src[i+3]
	}
	return img, nil
}
