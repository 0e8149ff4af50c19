package fileinfo

import (
	"strings"

	"shellview/internal/shell"
)

type typeInfo struct {
	name      string
	perceived shell.PerceivedType
}

var extensionTypes = map[string]typeInfo{
	".txt":      {"Text Document", shell.PerceivedText},
	".md":       {"Markdown Document", shell.PerceivedText},
	".log":      {"Log File", shell.PerceivedText},
	".csv":      {"CSV File", shell.PerceivedText},
	".json":     {"JSON File", shell.PerceivedText},
	".yaml":     {"YAML File", shell.PerceivedText},
	".yml":      {"YAML File", shell.PerceivedText},
	".go":       {"Go Source File", shell.PerceivedText},
	".jpg":      {"JPEG Image", shell.PerceivedImage},
	".jpeg":     {"JPEG Image", shell.PerceivedImage},
	".png":      {"PNG Image", shell.PerceivedImage},
	".gif":      {"GIF Image", shell.PerceivedImage},
	".bmp":      {"Bitmap Image", shell.PerceivedImage},
	".webp":     {"WebP Image", shell.PerceivedImage},
	".ico":      {"Icon", shell.PerceivedImage},
	".svg":      {"SVG Document", shell.PerceivedImage},
	".mp3":      {"MP3 Audio", shell.PerceivedAudio},
	".flac":     {"FLAC Audio", shell.PerceivedAudio},
	".wav":      {"Wave Audio", shell.PerceivedAudio},
	".ogg":      {"Ogg Audio", shell.PerceivedAudio},
	".mp4":      {"MP4 Video", shell.PerceivedVideo},
	".mkv":      {"Matroska Video", shell.PerceivedVideo},
	".avi":      {"AVI Video", shell.PerceivedVideo},
	".mov":      {"QuickTime Movie", shell.PerceivedVideo},
	".webm":     {"WebM Video", shell.PerceivedVideo},
	".zip":      {"Compressed (zipped) Folder", shell.PerceivedCompressed},
	".tar":      {"Tape Archive", shell.PerceivedCompressed},
	".gz":       {"Gzip Archive", shell.PerceivedCompressed},
	".tgz":      {"Gzip Archive", shell.PerceivedCompressed},
	".bz2":      {"Bzip2 Archive", shell.PerceivedCompressed},
	".xz":       {"XZ Archive", shell.PerceivedCompressed},
	".zst":      {"Zstandard Archive", shell.PerceivedCompressed},
	".7z":       {"7-Zip Archive", shell.PerceivedCompressed},
	".rar":      {"RAR Archive", shell.PerceivedCompressed},
	".pdf":      {"PDF Document", shell.PerceivedDocument},
	".doc":      {"Word Document", shell.PerceivedDocument},
	".docx":     {"Word Document", shell.PerceivedDocument},
	".xls":      {"Excel Worksheet", shell.PerceivedDocument},
	".xlsx":     {"Excel Worksheet", shell.PerceivedDocument},
	".ppt":      {"PowerPoint Presentation", shell.PerceivedDocument},
	".pptx":     {"PowerPoint Presentation", shell.PerceivedDocument},
	".odt":      {"OpenDocument Text", shell.PerceivedDocument},
	".exe":      {"Application", shell.PerceivedApplication},
	".com":      {"MS-DOS Application", shell.PerceivedApplication},
	".bat":      {"Windows Batch File", shell.PerceivedApplication},
	".cmd":      {"Windows Command Script", shell.PerceivedApplication},
	".msi":      {"Windows Installer Package", shell.PerceivedApplication},
	".lnk":      {"Shortcut", shell.PerceivedApplication},
	".sh":       {"Shell Script", shell.PerceivedApplication},
	".appimage": {"AppImage Application", shell.PerceivedApplication},
}

// TypeName returns the "Type" column text for a file extension.
func TypeName(ext string, isDir bool) string {
	if isDir {
		return "File folder"
	}
	if ti, ok := extensionTypes[strings.ToLower(ext)]; ok {
		return ti.name
	}
	if ext == "" {
		return "File"
	}
	return strings.ToUpper(strings.TrimPrefix(ext, ".")) + " File"
}

// Perceived returns the coarse content class for an extension.
func Perceived(ext string, isDir bool) shell.PerceivedType {
	if isDir {
		return shell.PerceivedFolder
	}
	if ti, ok := extensionTypes[strings.ToLower(ext)]; ok {
		return ti.perceived
	}
	return shell.PerceivedUnknown
}

// thumbnailable lists the formats the decoders registered in thumbnail.go
// understand.
func thumbnailable(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp":
		return true
	}
	return false
}
