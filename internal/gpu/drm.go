package gpu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/skobkin/corebuddy/internal/reading"
)

const drmClassPath = "class/drm"

// Card is a DRM card found under sysfs.
type Card struct {
	ID    string `json:"id"`
	Slot  string `json:"pci_slot"`
	PCIID string `json:"pci_id"`
	Name  string `json:"name"`
}

// Description renders the card for a generic GPU reading.
func (c Card) Description() string {
	name := c.Name
	if name == "" {
		name = "unknown device"
	}
	if c.Slot == "" {
		return fmt.Sprintf("Device: %s (%s)", name, c.ID)
	}
	return fmt.Sprintf("Device: %s (%s @ %s)", name, c.ID, c.Slot)
}

// DiscoverCards enumerates cardN entries below root/class/drm. A missing DRM
// class directory yields no cards and no error.
func DiscoverCards(root string, logger *slog.Logger) ([]Card, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	sysRoot, err := os.OpenRoot(root)
	if err != nil {
		return nil, fmt.Errorf("open sysfs root: %w", err)
	}
	defer sysRoot.Close()

	entries, err := fs.ReadDir(sysRoot.FS(), drmClassPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("drm class path missing", "root", root)
			return nil, nil
		}
		return nil, fmt.Errorf("read drm class dir: %w", err)
	}

	var cards []Card
	for _, entry := range entries {
		id := entry.Name()
		if !isCardName(id) {
			continue
		}
		if !entry.IsDir() && entry.Type()&os.ModeSymlink == 0 {
			continue
		}

		card, err := readCard(sysRoot, id)
		if err != nil {
			logger.Debug("skip drm card", "card", id, "err", err)
			continue
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func readCard(sysRoot *os.Root, id string) (Card, error) {
	deviceRoot, err := sysRoot.OpenRoot(path.Join(drmClassPath, id, "device"))
	if err != nil {
		return Card{}, fmt.Errorf("open device root: %w", err)
	}
	defer deviceRoot.Close()

	card := Card{ID: id}
	var subVendor, subDevice string

	if data, err := deviceRoot.ReadFile("uevent"); err == nil {
		uevent := string(data)
		card.Slot = ueventValue(uevent, "PCI_SLOT_NAME")
		card.PCIID = ueventValue(uevent, "PCI_ID")
		subVendor, subDevice, _ = strings.Cut(ueventValue(uevent, "PCI_SUBSYS_ID"), ":")
		card.Name = ueventValue(uevent, "DRIVER")
	}

	if card.PCIID == "" {
		vendor, vErr := readTrimmed(deviceRoot, "vendor")
		device, dErr := readTrimmed(deviceRoot, "device")
		if vErr == nil && dErr == nil {
			card.PCIID = strings.TrimPrefix(vendor, "0x") + ":" + strings.TrimPrefix(device, "0x")
		}
	}
	if card.PCIID == "" && card.Name == "" {
		return Card{}, fmt.Errorf("no pci identity")
	}

	if subVendor == "" {
		subVendor, _ = readTrimmed(deviceRoot, "subsystem_vendor")
	}
	if subDevice == "" {
		subDevice, _ = readTrimmed(deviceRoot, "subsystem_device")
	}

	vendorID, deviceID, _ := strings.Cut(card.PCIID, ":")
	if resolved := lookupDeviceName(vendorID, deviceID, subVendor, subDevice); preferResolvedName(card.Name, resolved) {
		card.Name = resolved
	}
	return card, nil
}

// DRMStrategy describes the first DRM card without invoking any command.
type DRMStrategy struct {
	root   string
	logger *slog.Logger
}

// NewDRMStrategy builds the strategy; an empty root means "/sys".
func NewDRMStrategy(root string, logger *slog.Logger) *DRMStrategy {
	if root == "" {
		root = "/sys"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DRMStrategy{root: root, logger: logger.With("component", "gpu_drm")}
}

func (s *DRMStrategy) Name() string { return StrategyDRM }

func (s *DRMStrategy) Query(ctx context.Context) (reading.GPU, error) {
	if err := ctx.Err(); err != nil {
		return reading.GPU{}, reading.Invocation("drm", err)
	}
	cards, err := DiscoverCards(s.root, s.logger)
	if err != nil {
		return reading.GPU{}, reading.Invocation("drm", err)
	}
	if len(cards) == 0 {
		return reading.GPU{}, reading.Shape("drm", "no drm cards")
	}
	return reading.GPU{
		Kind:        reading.GPUKindGeneric,
		Strategy:    StrategyDRM,
		Description: cards[0].Description(),
	}, nil
}

func isCardName(name string) bool {
	digits, ok := strings.CutPrefix(name, "card")
	if !ok || digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func ueventValue(data, key string) string {
	prefix := key + "="
	scanner := bufio.NewScanner(strings.NewReader(data))
	for scanner.Scan() {
		if value, ok := strings.CutPrefix(scanner.Text(), prefix); ok {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func readTrimmed(root *os.Root, name string) (string, error) {
	data, err := root.ReadFile(name)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
