//go:build !windows

package fileinfo

import "image"

// Icons are drawn glyphs on these platforms.
const platformClassIcons = false

func platformClassIcon(ext string, size int) (image.Image, error) { return nil, nil }

func platformInstanceIcon(path string, size int) (image.Image, error) { return nil, nil }

// prefersInstanceIcon reports whether a file of this extension carries its
// own icon. Images are handled by the provider itself.
func prefersInstanceIcon(ext string) bool { return false }
