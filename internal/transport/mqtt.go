// Package transport wraps the paho MQTT client with the small surface the
// coordinator needs: one wildcard status subscription and bounded JSON
// publishes to device control topics.
package transport

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/u1kamal/petpulse-backend/config"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// MessageHandler receives a raw message from the status subscription.
type MessageHandler func(topic string, payload []byte)

// Client is a connected MQTT client. It reconnects automatically; a
// broker that is down at startup is retried in the background rather
// than failing the process.
type Client struct {
	inner mqtt.Client
}

// Connect dials the broker and installs the status subscription. The
// subscription is established from the OnConnect hook so it survives
// reconnects.
func Connect(cfg *config.MQTTConfig, statusTopic string, onStatus MessageHandler) *Client {
	scheme := "tcp"
	opts := mqtt.NewClientOptions()
	if cfg.Port == 8883 {
		scheme = "ssl"
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)

	if cfg.Username != "" && cfg.Password != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.OnConnect = func(c mqtt.Client) {
		log.Printf("connected to MQTT broker %s:%d", cfg.Broker, cfg.Port)
		token := c.Subscribe(statusTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			onStatus(msg.Topic(), msg.Payload())
		})
		go func() {
			token.Wait()
			if err := token.Error(); err != nil {
				log.Printf("subscribing to %s failed: %v", statusTopic, err)
			}
		}()
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Printf("MQTT connection lost: %v", err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		log.Printf("MQTT broker %s:%d not reachable yet; retrying in the background", cfg.Broker, cfg.Port)
	} else if err := token.Error(); err != nil {
		log.Printf("MQTT connect failed: %v; retrying in the background", err)
	}

	return &Client{inner: client}
}

// PublishJSON marshals v and publishes it to the topic, waiting at most
// the publish timeout for broker acknowledgement.
func (c *Client) PublishJSON(topic string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal payload for %s: %w", topic, err)
	}

	token := c.inner.Publish(topic, 0, false, raw)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s: timed out after %s", topic, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// IsConnected reports broker connectivity, used by the health endpoint.
func (c *Client) IsConnected() bool {
	return c.inner.IsConnected()
}

// Disconnect flushes in-flight messages and closes the connection.
func (c *Client) Disconnect() {
	c.inner.Disconnect(250)
}
