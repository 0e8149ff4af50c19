package shell

// PropertyKey names one item property.
type PropertyKey struct {
	FormatID string
	PID      int
}

func (k PropertyKey) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return k.FormatID
}

// Well-known property keys.
var (
	KeyName          = PropertyKey{FormatID: "system.itemname", PID: 10}
	KeySize          = PropertyKey{FormatID: "system.size", PID: 12}
	KeyDateModified  = PropertyKey{FormatID: "system.datemodified", PID: 14}
	KeyDateCreated   = PropertyKey{FormatID: "system.datecreated", PID: 15}
	KeyItemType      = PropertyKey{FormatID: "system.itemtypetext", PID: 4}
	KeyPerceivedType = PropertyKey{FormatID: "system.perceivedtype", PID: 9}
	KeyExtension     = PropertyKey{FormatID: "system.fileextension", PID: 2}
	KeyAttributes    = PropertyKey{FormatID: "system.fileattributes", PID: 13}
)

var keyNames = map[PropertyKey]string{
	KeyName:          "Name",
	KeySize:          "Size",
	KeyDateModified:  "Date modified",
	KeyDateCreated:   "Date created",
	KeyItemType:      "Type",
	KeyPerceivedType: "Kind",
	KeyExtension:     "Extension",
	KeyAttributes:    "Attributes",
}

// KeyByName looks up a well-known key by its column title, case-sensitive.
func KeyByName(name string) (PropertyKey, bool) {
	for k, n := range keyNames {
		if n == name {
			return k, true
		}
	}
	return PropertyKey{}, false
}

// FastValue returns a property that was captured at enumeration time.
// It never does I/O; ok is false for anything that needs the provider.
func (it *ItemRef) FastValue(key PropertyKey) (any, bool) {
	switch key {
	case KeyName:
		return it.DisplayName, true
	case KeySize:
		return it.Size, true
	case KeyDateModified:
		if it.Modified.IsZero() {
			return nil, false
		}
		return it.Modified, true
	case KeyPerceivedType:
		return it.PerceivedType, true
	case KeyExtension:
		return it.Extension, true
	default:
		return nil, false
	}
}

// PerceivedType is the coarse content class of an item.
type PerceivedType int

const (
	PerceivedUnknown PerceivedType = iota
	PerceivedFolder
	PerceivedText
	PerceivedImage
	PerceivedAudio
	PerceivedVideo
	PerceivedCompressed
	PerceivedDocument
	PerceivedApplication
	PerceivedDrive
	PerceivedShare
)

func (p PerceivedType) String() string {
	switch p {
	case PerceivedFolder:
		return "Folder"
	case PerceivedText:
		return "Text"
	case PerceivedImage:
		return "Image"
	case PerceivedAudio:
		return "Audio"
	case PerceivedVideo:
		return "Video"
	case PerceivedCompressed:
		return "Compressed"
	case PerceivedDocument:
		return "Document"
	case PerceivedApplication:
		return "Application"
	case PerceivedDrive:
		return "Drive"
	case PerceivedShare:
		return "Share"
	default:
		return "Unknown"
	}
}

// ColumnType drives formatting and grouping of a column.
type ColumnType int

const (
	ColumnString ColumnType = iota
	ColumnDateTime
	ColumnSize
	ColumnEnum
)

// Column describes one column of the details view.
type Column struct {
	Key   PropertyKey
	Title string
	Type  ColumnType
	Width int
}

// DefaultColumns is the column set used when none is configured.
func DefaultColumns() []Column {
	return []Column{
		{Key: KeyName, Title: "Name", Type: ColumnString, Width: 260},
		{Key: KeyDateModified, Title: "Date modified", Type: ColumnDateTime, Width: 150},
		{Key: KeyItemType, Title: "Type", Type: ColumnString, Width: 120},
		{Key: KeySize, Title: "Size", Type: ColumnSize, Width: 90},
	}
}

// ColumnFor returns a descriptor for a well-known key.
func ColumnFor(key PropertyKey) Column {
	c := Column{Key: key, Title: key.String(), Type: ColumnString, Width: 120}
	switch key {
	case KeySize:
		c.Type = ColumnSize
	case KeyDateModified, KeyDateCreated:
		c.Type = ColumnDateTime
		c.Width = 150
	case KeyPerceivedType:
		c.Type = ColumnEnum
	}
	return c
}
