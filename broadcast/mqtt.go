package broadcast

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"spotfeed/spot"
)

// MQTTPublisher pushes stored spots to an MQTT broker so external consumers
// (map UIs, loggers) can follow the live stream. Topics are structured as
// <prefix>/<band>/<mode> for broker-side filtering.
type MQTTPublisher struct {
	broker      string
	port        int
	topicPrefix string
	client      mqtt.Client
}

// NewMQTTPublisher prepares a publisher; Connect must be called before use.
func NewMQTTPublisher(broker string, port int, topicPrefix string) *MQTTPublisher {
	return &MQTTPublisher{
		broker:      broker,
		port:        port,
		topicPrefix: topicPrefix,
	}
}

// Connect establishes the broker session. Reconnection after drops is
// handled by the MQTT library.
func (p *MQTTPublisher) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", p.broker, p.port))
	opts.SetClientID(fmt.Sprintf("spotfeed-%d", time.Now().Unix()))
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(1 * time.Minute)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("MQTT: connection lost: %v (library will reconnect)", err)
	})

	p.client = mqtt.NewClient(opts)
	log.Printf("MQTT: connecting to %s:%d...", p.broker, p.port)
	token := p.client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect to MQTT broker: %w", token.Error())
	}
	log.Println("MQTT: connected")
	return nil
}

// Publish sends the spot as JSON, fire-and-forget. Publish errors surface
// via the token and are logged, never propagated.
func (p *MQTTPublisher) Publish(s *spot.Spot) {
	if p.client == nil || !p.client.IsConnected() {
		return
	}
	payload, err := json.Marshal(s)
	if err != nil {
		log.Printf("MQTT: marshal spot %s: %v", s.DXCall, err)
		return
	}
	band := s.Band
	if band == "" {
		band = spot.BandUnknown
	}
	mode := s.Mode
	if mode == "" {
		mode = spot.BandUnknown
	}
	topic := fmt.Sprintf("%s/%s/%s", p.topicPrefix, band, mode)
	token := p.client.Publish(topic, 0, false, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			log.Printf("MQTT: publish %s: %v", s.DXCall, token.Error())
		}
	}()
}

// Close disconnects from the broker, allowing a short drain window.
func (p *MQTTPublisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
