// Package naming provides the naming conventions shared across drydock:
// snapshot names, backup artifact file names, and temporary files.
//
// These conventions are load-bearing: snapshot cleanup, remote probes
// and import all reconstruct the same names independently, so they must
// agree.
package naming

import "fmt"

// MetaFileName is the metadata record's file name inside a backup
// directory.
const MetaFileName = "meta.txt"

// SnapshotName returns the snapshot volume name for a VM.
//
// Example: web01 → web01.snapshot
func SnapshotName(vmName string) string {
	return vmName + ".snapshot"
}

// SnapshotPath returns the device path of a VM disk's snapshot.
//
// Example: /dev/vg0/web01 → /dev/vg0/web01.snapshot
func SnapshotPath(diskPath string) string {
	return diskPath + ".snapshot"
}

// XMLFileName returns the definition document file name for a VM.
//
// Example: web01 → web01.xml
func XMLFileName(vmName string) string {
	return vmName + ".xml"
}

// ImageFileName returns the disk image file name for a VM, with the
// compression extension when compression is in play.
//
// Example: web01 + bzip2 → web01.img.bzip2
func ImageFileName(vmName, compression string) string {
	if compression == "" || compression == "none" {
		return vmName + ".img"
	}
	return fmt.Sprintf("%s.img.%s", vmName, compression)
}

// TempXMLName returns the name for the transient rewritten definition
// document written before registration, stamped so leftovers from
// crashed runs are tellable apart.
//
// Example: web02 + 20260314-0926 → web02-20260314-0926.temp.xml
func TempXMLName(targetName, timestamp string) string {
	return fmt.Sprintf("%s-%s.temp.xml", targetName, timestamp)
}
