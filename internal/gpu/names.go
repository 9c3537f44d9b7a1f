package gpu

import (
	"strings"
	"sync"

	"github.com/jaypipes/pcidb"
)

var loadPCIDB = sync.OnceValue(func() *pcidb.PCIDB {
	db, err := pcidb.New()
	if err != nil {
		return nil
	}
	return db
})

// lookupDeviceName resolves a marketing name from the PCI ID database,
// preferring the subsystem entry when one matches.
func lookupDeviceName(vendorID, deviceID, subVendorID, subDeviceID string) string {
	vendorID = normalizePCIID(vendorID)
	deviceID = normalizePCIID(deviceID)
	if vendorID == "" || deviceID == "" {
		return ""
	}

	db := loadPCIDB()
	if db == nil {
		return ""
	}
	product, ok := db.Products[vendorID+deviceID]
	if !ok || product == nil {
		return ""
	}

	subVendorID = normalizePCIID(subVendorID)
	subDeviceID = normalizePCIID(subDeviceID)
	if subVendorID != "" && subDeviceID != "" {
		for _, subsystem := range product.Subsystems {
			if subsystem != nil && subsystem.Name != "" &&
				strings.EqualFold(subsystem.VendorID, subVendorID) &&
				strings.EqualFold(subsystem.ID, subDeviceID) {
				return subsystem.Name
			}
		}
	}
	return product.Name
}

func normalizePCIID(raw string) string {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(strings.ToLower(value), "0x")
	if value == "" {
		return ""
	}
	if len(value) < 4 {
		value = strings.Repeat("0", 4-len(value)) + value
	}
	return value
}

// preferResolvedName reports whether a database name should replace the
// sysfs-provided one, which is often just a driver name.
func preferResolvedName(current, resolved string) bool {
	if resolved == "" {
		return false
	}
	lower := strings.ToLower(strings.TrimSpace(current))
	switch lower {
	case "", "amdgpu", "radeon", "nouveau", "nvidia", "i915", "xe", "unknown":
		return true
	}
	return strings.HasPrefix(lower, "pci device") || strings.HasPrefix(lower, "0x")
}
