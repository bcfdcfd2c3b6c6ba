package services

import (
	"encoding/json"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTService fans match commands out to the field devices. Connection loss
// is tolerated: publishes are best-effort and the client auto-reconnects.
type MQTTService struct {
	client mqtt.Client
}

// NewMQTTService connects to the broker. A broker that is down at startup is
// logged, not fatal; matches run without drone commands.
func NewMQTTService(brokerURL string) *MQTTService {
	if brokerURL == "" {
		brokerURL = "tcp://localhost:1883"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID("dronearena-server").
		SetAutoReconnect(true).
		SetConnectRetry(true)
	opts.OnConnect = func(mqtt.Client) {
		log.Println("✅ MQTT Broker connected")
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Printf("❌ MQTT Error: %v", token.Error())
	}
	return &MQTTService{client: client}
}

// ConfigureDrone publishes a config to one drone's topic.
func (s *MQTTService) ConfigureDrone(droneID string, config map[string]interface{}) {
	s.publish("drone/"+droneID+"/config", config)
}

// BroadcastCommand publishes a command every drone listens for.
func (s *MQTTService) BroadcastCommand(command map[string]interface{}) {
	s.publish("drone/all/command", command)
}

func (s *MQTTService) publish(topic string, payload interface{}) {
	if s.client == nil || !s.client.IsConnectionOpen() {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("❌ Failed to marshal MQTT payload for %s: %v", topic, err)
		return
	}
	token := s.client.Publish(topic, 1, false, body)
	go func() {
		if token.Wait() && token.Error() != nil {
			log.Printf("❌ Failed to publish to %s: %v", topic, token.Error())
		}
	}()
}
