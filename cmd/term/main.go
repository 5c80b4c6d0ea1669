package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shse/go-term/commands"
	"github.com/shse/go-term/terminal"
	"github.com/shse/go-term/transport"
)

var (
	version = "dev"
	built   = "unknown"
)

type Config struct {
	ConsolePort uint16 `default:"7000"`
	HttpPort    uint16 `default:"8080"`

	QueueSize int `default:"16"`
	SinkLimit int `default:"1460"`

	ApiPath string `default:"/api/cmd"`
	WsPath  string `default:"/ws"`

	MqttBroker   string
	MqttTopic    string `default:"term/cmd"`
	MqttClientId string `default:"go-term"`

	ResolveTimeout time.Duration `default:"15s"`
}

func main() {
	logger, err := zap.NewProduction()

	if err != nil {
		log.Fatal(err.Error())
	}

	defer logger.Sync()

	var config Config

	err = envconfig.Process("term", &config)

	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	term := terminal.New()

	builtin := &commands.Commands{
		App:            "go-term",
		Version:        version,
		Built:          built,
		StartedAt:      time.Now(),
		Resolver:       terminal.NewResolver(nil),
		ResolveTimeout: config.ResolveTimeout,
		Reboot: func() {
			logger.Info("Reset requested")
			logger.Sync()
			os.Exit(0)
		},
	}

	builtin.Setup(term)

	queue := transport.NewQueue(term, logger, prometheus.DefaultRegisterer, config.QueueSize, config.SinkLimit)
	server := transport.NewServer(term, logger, prometheus.DefaultRegisterer)
	api := transport.NewAPI(term, queue, logger)
	ws := transport.NewWebSocket(queue, logger)

	http.Handle("/metrics", promhttp.Handler())
	http.Handle(config.ApiPath, api)
	http.Handle(config.WsPath, ws)

	logger.Info("Profiler is on", zap.String("path", "/debug/pprof"))
	logger.Info("Prometheus metrics are on", zap.String("path", "/metrics"))

	signals := make(chan os.Signal, 1)

	signal.Notify(signals,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		<-signals
		logger.Info("Shutting down")
		cancel()
	}()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return queue.Run(groupCtx)
	})

	group.Go(func() error {
		return server.Run(groupCtx, fmt.Sprintf("0.0.0.0:%d", config.ConsolePort))
	})

	httpServer := &http.Server{Addr: fmt.Sprintf("0.0.0.0:%d", config.HttpPort)}

	group.Go(func() error {
		return httpServer.ListenAndServe()
	})

	group.Go(func() error {
		<-groupCtx.Done()
		return httpServer.Shutdown(context.Background())
	})

	if config.MqttBroker != "" {
		mqtt := transport.NewMQTT(queue, logger, config.MqttBroker, config.MqttClientId, config.MqttTopic)

		group.Go(func() error {
			return mqtt.Run(groupCtx)
		})
	}

	if err := group.Wait(); err != nil && err != context.Canceled {
		logger.Error("Terminated", zap.Error(err))
	}
}
