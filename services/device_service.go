package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"dronearena_server/models"
)

// OfflineThreshold is how long a device may stay silent before CheckOffline
// marks it offline.
const OfflineThreshold = 30 * time.Second

var (
	ErrUnregisteredDevice = errors.New("device not registered")
	ErrDeviceNotFound     = errors.New("ESP device not found")
	ErrDeviceExists       = errors.New("ESP with this MAC address already registered")
	ErrDroneAssigned      = errors.New("drone ID already assigned to another ESP")
	ErrRoleConflict       = errors.New("drone ID does not belong to either team in this match")
)

type ESPService struct {
	Dynamo *DynamoService
}

// validDroneID accepts R1..R8 and B1..B8.
func validDroneID(droneID string) bool {
	if len(droneID) != 2 {
		return false
	}
	if droneID[0] != 'R' && droneID[0] != 'B' {
		return false
	}
	return droneID[1] >= '1' && droneID[1] <= '8'
}

// Register creates a new device mapping from the admin panel.
func (es *ESPService) Register(ctx context.Context, macAddress, droneID, role, nickname, deviceType string) (*models.ESPDevice, error) {
	if macAddress == "" || droneID == "" || role == "" {
		return nil, fmt.Errorf("MAC address, Drone ID, and Role are required")
	}
	if !validDroneID(droneID) {
		return nil, fmt.Errorf("invalid drone ID %q (expected R1-R8 or B1-B8)", droneID)
	}
	mac := strings.ToUpper(macAddress)

	var existing models.ESPDevice
	err := es.Dynamo.GetItem(ctx, models.ESPDevicesTable, StringKey("macAddress", mac), &existing)
	if err == nil {
		return nil, ErrDeviceExists
	}
	if !errors.Is(err, ErrItemNotFound) {
		return nil, err
	}
	if taken, err := es.droneIDTaken(ctx, droneID, mac); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrDroneAssigned
	}

	if nickname == "" {
		nickname = droneID + " " + role
	}
	if deviceType == "" {
		deviceType = "ESP32-Dev"
	}
	device := &models.ESPDevice{
		MacAddress:      mac,
		DroneID:         droneID,
		Role:            role,
		Nickname:        nickname,
		DeviceType:      deviceType,
		Status:          models.DeviceOffline,
		LastSeen:        time.Now().UTC().Format(time.RFC3339),
		FirmwareVersion: "1.0.0",
		IsActive:        true,
	}
	if err := es.Dynamo.PutItem(ctx, models.ESPDevicesTable, device); err != nil {
		return nil, err
	}
	log.Printf("✅ ESP Registered: %s → %s", droneID, mac)
	return device, nil
}

func (es *ESPService) droneIDTaken(ctx context.Context, droneID, excludeMAC string) (bool, error) {
	devices, err := es.List(ctx)
	if err != nil {
		return false, err
	}
	for _, d := range devices {
		if d.DroneID == droneID && d.MacAddress != excludeMAC {
			return true, nil
		}
	}
	return false, nil
}

// Announce handles a device introducing itself after boot. An unknown MAC is
// not an error: the board may announce before an operator registers it.
func (es *ESPService) Announce(ctx context.Context, macAddress string) (*models.ESPDevice, error) {
	mac := strings.ToUpper(macAddress)
	var device models.ESPDevice
	err := es.Dynamo.GetItem(ctx, models.ESPDevicesTable, StringKey("macAddress", mac), &device)
	if errors.Is(err, ErrItemNotFound) {
		log.Printf("⚠️  Unregistered ESP detected: %s", mac)
		return nil, ErrUnregisteredDevice
	}
	if err != nil {
		return nil, err
	}
	device.Status = models.DeviceOnline
	device.LastSeen = time.Now().UTC().Format(time.RFC3339)
	if err := es.Dynamo.PutItem(ctx, models.ESPDevicesTable, &device); err != nil {
		return nil, err
	}
	log.Printf("🟢 ESP Online: %s (%s)", device.DroneID, mac)
	return &device, nil
}

// Heartbeat refreshes a device's online status and last-seen timestamp.
func (es *ESPService) Heartbeat(ctx context.Context, macAddress, ipAddress string) error {
	mac := strings.ToUpper(macAddress)
	var device models.ESPDevice
	err := es.Dynamo.GetItem(ctx, models.ESPDevicesTable, StringKey("macAddress", mac), &device)
	if errors.Is(err, ErrItemNotFound) {
		return ErrDeviceNotFound
	}
	if err != nil {
		return err
	}
	device.Status = models.DeviceOnline
	device.LastSeen = time.Now().UTC().Format(time.RFC3339)
	if ipAddress != "" {
		device.IPAddress = ipAddress
	}
	return es.Dynamo.PutItem(ctx, models.ESPDevicesTable, &device)
}

// WhoAmI answers a device asking for its own assignment. Only active devices
// get an identity back.
func (es *ESPService) WhoAmI(ctx context.Context, macAddress string) (*models.ESPDevice, error) {
	mac := strings.ToUpper(macAddress)
	var device models.ESPDevice
	err := es.Dynamo.GetItem(ctx, models.ESPDevicesTable, StringKey("macAddress", mac), &device)
	if errors.Is(err, ErrItemNotFound) {
		return nil, ErrUnregisteredDevice
	}
	if err != nil {
		return nil, err
	}
	if !device.IsActive {
		return nil, ErrUnregisteredDevice
	}
	device.Status = models.DeviceOnline
	device.LastSeen = time.Now().UTC().Format(time.RFC3339)
	if err := es.Dynamo.PutItem(ctx, models.ESPDevicesTable, &device); err != nil {
		return nil, err
	}
	return &device, nil
}

// Resolve maps a MAC address to its drone assignment. Ingestion callers treat
// ErrUnregisteredDevice as silently-drop-and-acknowledge.
func (es *ESPService) Resolve(ctx context.Context, macAddress string) (droneID, role string, err error) {
	mac := strings.ToUpper(macAddress)
	var device models.ESPDevice
	err = es.Dynamo.GetItem(ctx, models.ESPDevicesTable, StringKey("macAddress", mac), &device)
	if errors.Is(err, ErrItemNotFound) {
		return "", "", ErrUnregisteredDevice
	}
	if err != nil {
		return "", "", err
	}
	if !device.IsActive {
		return "", "", ErrUnregisteredDevice
	}
	return device.DroneID, device.Role, nil
}

// InferTeam derives team membership from the drone-id prefix: R* flies for
// teamA, B* for teamB.
func InferTeam(droneID string, match *models.Match) (string, error) {
	switch {
	case strings.HasPrefix(droneID, "R"):
		return match.TeamAID, nil
	case strings.HasPrefix(droneID, "B"):
		return match.TeamBID, nil
	default:
		return "", ErrRoleConflict
	}
}

// List returns every registered device sorted by drone id.
func (es *ESPService) List(ctx context.Context) ([]models.ESPDevice, error) {
	var devices []models.ESPDevice
	if err := es.Dynamo.ScanItems(ctx, models.ESPDevicesTable, &devices); err != nil {
		return nil, err
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].DroneID < devices[j].DroneID })
	return devices, nil
}

// Available returns online, active devices.
func (es *ESPService) Available(ctx context.Context) ([]models.ESPDevice, error) {
	devices, err := es.List(ctx)
	if err != nil {
		return nil, err
	}
	available := make([]models.ESPDevice, 0, len(devices))
	for _, d := range devices {
		if d.Status == models.DeviceOnline && d.IsActive {
			available = append(available, d)
		}
	}
	return available, nil
}

// Update mutates a device registration.
func (es *ESPService) Update(ctx context.Context, macAddress string, droneID, role, nickname, deviceType string, isActive *bool) (*models.ESPDevice, error) {
	mac := strings.ToUpper(macAddress)
	var device models.ESPDevice
	err := es.Dynamo.GetItem(ctx, models.ESPDevicesTable, StringKey("macAddress", mac), &device)
	if errors.Is(err, ErrItemNotFound) {
		return nil, ErrDeviceNotFound
	}
	if err != nil {
		return nil, err
	}

	if droneID != "" && droneID != device.DroneID {
		if !validDroneID(droneID) {
			return nil, fmt.Errorf("invalid drone ID %q (expected R1-R8 or B1-B8)", droneID)
		}
		if taken, err := es.droneIDTaken(ctx, droneID, mac); err != nil {
			return nil, err
		} else if taken {
			return nil, ErrDroneAssigned
		}
		device.DroneID = droneID
	}
	if role != "" {
		device.Role = role
	}
	if nickname != "" {
		device.Nickname = nickname
	}
	if deviceType != "" {
		device.DeviceType = deviceType
	}
	if isActive != nil {
		device.IsActive = *isActive
	}
	if err := es.Dynamo.PutItem(ctx, models.ESPDevicesTable, &device); err != nil {
		return nil, err
	}
	log.Printf("✅ ESP Updated: %s → %s", device.DroneID, device.MacAddress)
	return &device, nil
}

// Delete removes a device registration.
func (es *ESPService) Delete(ctx context.Context, macAddress string) error {
	mac := strings.ToUpper(macAddress)
	var device models.ESPDevice
	err := es.Dynamo.GetItem(ctx, models.ESPDevicesTable, StringKey("macAddress", mac), &device)
	if errors.Is(err, ErrItemNotFound) {
		return ErrDeviceNotFound
	}
	if err != nil {
		return err
	}
	if err := es.Dynamo.DeleteItem(ctx, models.ESPDevicesTable, StringKey("macAddress", mac)); err != nil {
		return err
	}
	log.Printf("❌ ESP Deleted: %s (%s)", device.DroneID, mac)
	return nil
}

// CheckOffline marks devices offline when they have not been seen within
// OfflineThreshold. Returns how many were flipped.
func (es *ESPService) CheckOffline(ctx context.Context) (int, error) {
	devices, err := es.List(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().UTC().Add(-OfflineThreshold)
	marked := 0
	for i := range devices {
		d := &devices[i]
		if d.Status != models.DeviceOnline {
			continue
		}
		lastSeen, err := time.Parse(time.RFC3339, d.LastSeen)
		if err != nil || lastSeen.Before(cutoff) {
			d.Status = models.DeviceOffline
			if err := es.Dynamo.PutItem(ctx, models.ESPDevicesTable, d); err != nil {
				return marked, err
			}
			marked++
		}
	}
	if marked > 0 {
		log.Printf("🔴 Marked %d ESPs as offline", marked)
	}
	return marked, nil
}
