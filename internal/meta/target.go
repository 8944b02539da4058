package meta

// Overrides carries the optional retargeting fields an operator may
// supply. A nil pointer means the field was not given, which is
// distinct from explicitly supplying an empty value.
type Overrides struct {
	Name              *string
	VolumeGroup       *string
	LogicalVolume     *string
	LogicalVolumeSize *string
	Bridge            *string
	MAC               *string
}

func value(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	return *p, true
}

// ResolveTarget derives target metadata from a source record.
//
// Unset override fields keep the source value, with three exceptions:
// the unique identifier is cleared for clones (the hypervisor assigns a
// fresh one on registration), the MAC is regenerated for clones via
// newMAC, and the logical volume follows a supplied name override when
// no explicit volume override was given. The storage reference is
// recomputed from the final volume group and logical volume.
func ResolveTarget(src Metadata, action Action, ov Overrides, newMAC func() (string, error)) (Metadata, error) {
	target := src

	if name, ok := value(ov.Name); ok {
		target.Name = name
	}

	if action == ActionClone {
		target.UUID = ""
	}

	if vg, ok := value(ov.VolumeGroup); ok {
		target.VolumeGroup = vg
	}

	if lv, ok := value(ov.LogicalVolume); ok {
		target.LogicalVolume = lv
	} else if name, ok := value(ov.Name); ok {
		target.LogicalVolume = name
	}

	if size, ok := value(ov.LogicalVolumeSize); ok {
		target.LogicalVolumeSize = size
	} else {
		target.LogicalVolumeSize = src.ImageSize
	}

	if bridge, ok := value(ov.Bridge); ok {
		target.Bridge = bridge
	}

	if mac, ok := value(ov.MAC); ok {
		target.MAC = mac
	} else if action == ActionClone {
		mac, err := newMAC()
		if err != nil {
			return Metadata{}, err
		}
		target.MAC = mac
	}

	target.Disk = "/dev/" + target.VolumeGroup + "/" + target.LogicalVolume

	return target, nil
}
