package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ipmi-atca/shelfmon/internal/ipmi"
	"github.com/ipmi-atca/shelfmon/internal/logging"
	"github.com/ipmi-atca/shelfmon/internal/metrics"
	"github.com/ipmi-atca/shelfmon/internal/poll"
	"github.com/ipmi-atca/shelfmon/internal/topology"
	"github.com/ipmi-atca/shelfmon/internal/tree"
)

const (
	defaultShelfManager = "127.0.0.1"
	defaultPort         = 623
	defaultMode         = "static"
	defaultMinPeriod    = 5 * time.Second
	defaultMetricsAddr  = ":9090"
)

var (
	shelfManager = flag.String("shelfmanager", defaultShelfManager, "Hostname or IP of the ATCA shelf manager")
	rmcpPort     = flag.Int("port", defaultPort, "RMCP/IPMI-LAN UDP port")
	mode         = flag.String("mode", defaultMode, "Topology policy: static or dynamic")
	minPeriod    = flag.Duration("min-period", defaultMinPeriod, "Minimum inter-cycle period")
	metricsAddr  = flag.String("metrics-addr", defaultMetricsAddr, "Address to serve Prometheus metrics on")
	mqttBroker   = flag.String("mqtt-broker", "", "Optional MQTT broker to bridge tree snapshots to (disabled if empty)")
	mqttTopic    = flag.String("mqtt-topic", "atca/crate", "MQTT topic for the snapshot bridge")
)

func main() {
	flag.Parse()

	logger := logging.NewSlog(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	session := ipmi.NewClient(*shelfManager, *rmcpPort, 0)

	t := tree.New()
	t.SetMinPollPeriod(*minPeriod)

	policy, err := buildPolicy(*mode)
	if err != nil {
		log.Fatalf("atca-monitor: %v", err)
	}

	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)

	engine := poll.New(poll.Config{
		Session:  session,
		Tree:     t,
		Policy:   policy,
		Logger:   logger,
		Recorder: rec,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := engine.Startup(ctx); err != nil {
		log.Fatalf("atca-monitor: startup failed: %v", err)
	}
	engine.Start(ctx)

	if *mqttBroker != "" {
		bridge := newMQTTBridge(*mqttBroker, *mqttTopic, t)
		if err := bridge.Connect(); err != nil {
			logger.Warn("mqtt bridge connect failed", "error", err)
		} else {
			bridge.StartPublishing(10 * time.Second)
			defer bridge.StopPublishing()
			defer bridge.Disconnect()
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: *metricsAddr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	log.Printf("atca-monitor polling %s:%d in %s mode (min period %s), metrics on %s",
		*shelfManager, *rmcpPort, strings.ToLower(*mode), *minPeriod, *metricsAddr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("atca-monitor: shutting down")
	engine.Stop()
	_ = srv.Close()
}

func buildPolicy(mode string) (topology.Policy, error) {
	slots := []int{2, 3, 4, 5, 6, 7}
	switch strings.ToLower(mode) {
	case "static":
		return topology.NewStatic(slots), nil
	case "dynamic":
		return topology.NewDynamic(), nil
	default:
		return nil, errInvalidMode(mode)
	}
}

type errInvalidMode string

func (e errInvalidMode) Error() string {
	return "invalid -mode " + strconv.Quote(string(e)) + ", want static or dynamic"
}
