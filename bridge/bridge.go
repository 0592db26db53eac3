// Package bridge connects the arm to its collaborators over MQTT: intents
// from the command interpreter, detection snapshots from the vision side,
// and state/error publications back out.
package bridge

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"armlink/config"
	"armlink/intent"
)

// Bridge owns the MQTT session for one arm.
type Bridge struct {
	client mqtt.Client
	disp   *intent.Dispatcher
	log    *logrus.Entry
	armID  string

	mu         sync.RWMutex
	detections []intent.Detection
}

// New connects to the broker and subscribes to the arm's topics.
func New(cfg config.MQTT, disp *intent.Dispatcher, log *logrus.Logger) (*Bridge, error) {
	b := &Bridge{
		disp:  disp,
		log:   log.WithField("component", "bridge"),
		armID: cfg.ArmID,
	}

	b.client = mqtt.NewClient(b.clientOptions(cfg))
	if token := b.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return b, nil
}

// clientOptions builds the paho session options. Ordered delivery is off:
// with it on, every handler runs sequentially on one router goroutine, and
// an estop message would queue behind an in-flight move's intent handler
// for the whole move.
func (b *Bridge) clientOptions(cfg config.MQTT) *mqtt.ClientOptions {
	return mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetKeepAlive(60 * time.Second).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(10 * time.Second).
		SetCleanSession(true).
		SetOrderMatters(false).
		SetOnConnectHandler(b.onConnect).
		SetConnectionLostHandler(b.onConnectionLost)
}

func (b *Bridge) topic(suffix string) string {
	return fmt.Sprintf("arm/%s/%s", b.armID, suffix)
}

func (b *Bridge) onConnect(client mqtt.Client) {
	b.log.Info("connected to broker, subscribing")
	subs := map[string]mqtt.MessageHandler{
		b.topic("intent"):     b.onIntent,
		b.topic("detections"): b.onDetections,
		b.topic("estop"):      b.onEStop,
	}
	for topic, handler := range subs {
		if token := client.Subscribe(topic, 1, handler); token.Wait() && token.Error() != nil {
			b.log.Errorf("subscribe %s: %v", topic, token.Error())
		}
	}
	b.publishState()
}

func (b *Bridge) onConnectionLost(_ mqtt.Client, err error) {
	b.log.Warnf("connection lost: %v", err)
}

// onIntent executes one interpreter command. The handler blocks its own
// goroutine for the whole move; the dispatcher serializes concurrent
// intents, one move at a time.
func (b *Bridge) onIntent(_ mqtt.Client, msg mqtt.Message) {
	in, err := intent.ParseIntent(msg.Payload())
	if err != nil {
		b.publishError(err)
		return
	}
	b.log.Infof("intent: %s", in.Command)
	if err := b.disp.Handle(in); err != nil {
		b.log.Warnf("intent rejected: %v", err)
		b.publishError(err)
		return
	}
	b.publishState()
}

// onDetections caches the latest vision snapshot for the interpreter side.
func (b *Bridge) onDetections(_ mqtt.Client, msg mqtt.Message) {
	ds, err := intent.ParseDetections(msg.Payload())
	if err != nil {
		b.log.Warnf("bad detection snapshot: %v", err)
		return
	}
	b.mu.Lock()
	b.detections = ds
	b.mu.Unlock()
}

// onEStop bypasses the dispatcher queue entirely.
func (b *Bridge) onEStop(_ mqtt.Client, _ mqtt.Message) {
	if err := b.disp.EStop(); err != nil {
		b.publishError(err)
		return
	}
	b.publishState()
}

// Detections returns the last cached vision snapshot.
func (b *Bridge) Detections() []intent.Detection {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]intent.Detection, len(b.detections))
	copy(out, b.detections)
	return out
}

func (b *Bridge) publishState() {
	payload, err := json.Marshal(b.disp.Current())
	if err != nil {
		return
	}
	b.client.Publish(b.topic("state"), 1, true, payload)
}

func (b *Bridge) publishError(cause error) {
	payload, _ := json.Marshal(map[string]string{"error": cause.Error()})
	b.client.Publish(b.topic("error"), 1, false, payload)
}

// Close disconnects from the broker.
func (b *Bridge) Close() {
	if b.client.IsConnected() {
		b.client.Disconnect(250)
		b.log.Info("disconnected")
	}
}
