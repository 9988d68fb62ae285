package main

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	mqttlib "github.com/eclipse/paho.mqtt.golang"

	"github.com/ipmi-atca/shelfmon/common"
	"github.com/ipmi-atca/shelfmon/internal/tree"
)

// mqttBridge is a reference consumer of the Query Interface: it snapshots
// the whole tree on a ticker and publishes it as JSON until its stop
// channel is closed. It lives outside the core, like the rest of the
// supervisory/publication layer.
type mqttBridge struct {
	broker string
	topic  string
	tree   *tree.Tree

	client   mqttlib.Client
	stopChan chan struct{}
}

func newMQTTBridge(broker, topic string, t *tree.Tree) *mqttBridge {
	return &mqttBridge{broker: broker, topic: topic, tree: t, stopChan: make(chan struct{})}
}

func (b *mqttBridge) Connect() error {
	opts := mqttlib.NewClientOptions()
	opts.AddBroker(b.broker)
	opts.SetClientID("atca-monitor")
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqttlib.Client, err error) {
		log.Printf("atca-monitor: mqtt connection lost: %v", err)
	})

	b.client = mqttlib.NewClient(opts)
	if token := b.client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (b *mqttBridge) StartPublishing(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-b.stopChan:
				return
			case <-ticker.C:
				b.publish()
			}
		}
	}()
}

func (b *mqttBridge) StopPublishing() {
	close(b.stopChan)
}

func (b *mqttBridge) Disconnect() {
	if b.client != nil && b.client.IsConnected() {
		b.client.Disconnect(250)
	}
}

// snapshot is the JSON shape published per walk: a flat list of leaf
// paths and their current values, in traversal order.
type snapshot struct {
	Path  string      `json:"path"`
	Value interface{} `json:"value"`
}

func (b *mqttBridge) publish() {
	var entries []snapshot
	b.tree.Walk(func(path []string, n *tree.Node) {
		if n.Kind() == tree.KindContainer {
			return
		}
		entries = append(entries, snapshot{Path: strings.Join(path, "/"), Value: renderValue(n.Value())})
	})

	data, err := json.Marshal(entries)
	if err != nil {
		log.Printf("atca-monitor: mqtt snapshot marshal failed: %v", err)
		return
	}

	token := b.client.Publish(b.topic, 0, false, data)
	if token.Wait() && token.Error() != nil {
		log.Printf("atca-monitor: mqtt publish failed: %v", token.Error())
	}
}

func renderValue(v common.Value) interface{} {
	switch v.Kind {
	case common.KindFloat:
		return v.F
	case common.KindInt:
		return v.I
	default:
		return v.S
	}
}
