//go:build linux

package fileinfo

import "strings"

func platformDrives() ([]Drive, error) {
	mounts, err := readMountInfo()
	if err != nil {
		return []Drive{{Path: "/", Label: driveLabel("/")}}, nil
	}
	seen := map[string]bool{}
	drives := []Drive{{Path: "/", Label: driveLabel("/")}}
	seen["/"] = true
	for _, m := range mounts {
		if seen[m.MountPoint] || strings.HasPrefix(m.MountPoint, "/snap/") {
			continue
		}
		network := isSMBFSType(m.FSType) || strings.HasPrefix(m.FSType, "nfs")
		if !network && !strings.HasPrefix(m.Source, "/dev/") {
			continue
		}
		if strings.HasPrefix(m.Source, "/dev/loop") {
			continue
		}
		seen[m.MountPoint] = true
		drives = append(drives, Drive{Path: m.MountPoint, Label: driveLabel(m.MountPoint), Network: network})
	}
	return drives, nil
}
