package machine

import "github.com/rawblock/mint-engine/pkg/models"

// The 6-byte ASCII '0'/'1' feature string doubles as a compact uuid (§3,
// §9). Reimplementations may use a bitfield internally provided the wire
// format still carries the 6-byte string — the engine keeps the string
// representation directly on models.Machine.Feature for wire compatibility
// but offers bit-level accessors for the bookkeeping call sites.

func featureEnabled(feature [6]byte, index int) bool {
	return feature[index] == '1'
}

func setFeature(feature *[6]byte, index int, on bool) {
	if on {
		feature[index] = '1'
	} else {
		feature[index] = '0'
	}
}

// CollectionsOn reports whether the collections feature bit is set.
func CollectionsOn(m *models.Machine) bool { return featureEnabled(m.Feature, models.FeatureCollectionsOn) }

// FreezeOn reports whether the freeze feature bit is set.
func FreezeOn(m *models.Machine) bool { return featureEnabled(m.Feature, models.FeatureFreezeOn) }

// FreezeLockOn reports whether the freeze-lock feature bit is set.
func FreezeLockOn(m *models.Machine) bool { return featureEnabled(m.Feature, models.FeatureFreezeLockOn) }

func setCollectionsOn(m *models.Machine, on bool) { setFeature(&m.Feature, models.FeatureCollectionsOn, on) }
func setFreezeOn(m *models.Machine, on bool)       { setFeature(&m.Feature, models.FeatureFreezeOn, on) }
func setFreezeLockOn(m *models.Machine, on bool)   { setFeature(&m.Feature, models.FeatureFreezeLockOn, on) }

// DefaultFeature is the all-zero feature string every machine is
// initialized with, regardless of caller input (§4.2, Initialize).
func DefaultFeature() [6]byte {
	return [6]byte{'0', '0', '0', '0', '0', '0'}
}
