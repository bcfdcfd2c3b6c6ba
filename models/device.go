package models

import "strings"

// Device statuses
const (
	DeviceOnline  = "online"
	DeviceOffline = "offline"
)

// DroneRoles are the positions a drone can fly in a round.
var DroneRoles = []string{"Forward", "Striker", "Defender", "Keeper"}

// ESPDevice maps a physical ESP32 board (by MAC address) to a logical drone
// identifier. Registrations outlive matches; the same boards fly every fixture.
type ESPDevice struct {
	MacAddress      string `dynamodbav:"macAddress" json:"macAddress"` // uppercase
	DroneID         string `dynamodbav:"droneId" json:"droneId"`       // R1..R8, B1..B8
	Role            string `dynamodbav:"role" json:"role"`
	Nickname        string `dynamodbav:"nickname,omitempty" json:"nickname,omitempty"`
	DeviceType      string `dynamodbav:"deviceType" json:"deviceType"`
	Status          string `dynamodbav:"status" json:"status"`
	LastSeen        string `dynamodbav:"lastSeen" json:"lastSeen"`
	IPAddress       string `dynamodbav:"ipAddress,omitempty" json:"ipAddress,omitempty"`
	FirmwareVersion string `dynamodbav:"firmwareVersion" json:"firmwareVersion"`
	IsActive        bool   `dynamodbav:"isActive" json:"isActive"`
}

// TeamColor derives the side from the drone id prefix (R = Red, B = Blue).
func (d *ESPDevice) TeamColor() string {
	if strings.HasPrefix(d.DroneID, "R") {
		return "Red"
	}
	return "Blue"
}

// ESPDevicesTable is the DynamoDB table name for device registrations
const ESPDevicesTable = "ESPDevices"
