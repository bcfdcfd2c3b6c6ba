package models

import "fmt"

// TelemetryLog is one sample from a drone. Points is the score the sample
// earned at ingestion time.
type TelemetryLog struct {
	Timestamp int64   `dynamodbav:"timestamp" json:"timestamp"` // unix ms
	X         float64 `dynamodbav:"x" json:"x"`
	Y         float64 `dynamodbav:"y" json:"y"`
	Z         float64 `dynamodbav:"z" json:"z"`
	Pitch     float64 `dynamodbav:"pitch" json:"pitch"`
	Roll      float64 `dynamodbav:"roll" json:"roll"`
	Yaw       float64 `dynamodbav:"yaw" json:"yaw"`
	Battery   float64 `dynamodbav:"battery" json:"battery"`
	Points    int     `dynamodbav:"points" json:"points"`
}

// DroneTelemetry is the append-only log sequence for one (match, drone, round).
// Created lazily on the first sample for a key.
type DroneTelemetry struct {
	MatchID     string         `dynamodbav:"matchId" json:"matchId"`
	TelemetryID string         `dynamodbav:"telemetryId" json:"telemetryId"` // "<round>#<droneId>"
	TeamID      string         `dynamodbav:"teamId" json:"teamId"`
	DroneID     string         `dynamodbav:"droneId" json:"droneId"`
	RoundNumber int            `dynamodbav:"roundNumber" json:"roundNumber"`
	Logs        []TelemetryLog `dynamodbav:"logs" json:"logs"`
}

// TelemetryID builds the sort key for a (round, drone) pair.
func TelemetryID(roundNumber int, droneID string) string {
	return fmt.Sprintf("%d#%s", roundNumber, droneID)
}

// DroneTelemetryTable is the DynamoDB table name for telemetry records
const DroneTelemetryTable = "DroneTelemetry"
