package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eivy/smartir-learn/broadlink"
	"github.com/eivy/smartir-learn/metrics"
	"github.com/eivy/smartir-learn/mqtt"
)

func main() {
	config, err := loadConfig("./config.yaml")
	if err != nil {
		log.Fatal(err)
	}

	prompt := newPrompter(os.Stdin, os.Stdout)

	address := config.Device.Address
	if len(os.Args) > 1 {
		address = os.Args[1]
	}
	if address == "" {
		address = prompt.line("Please enter the IP address of your Broadlink device: ")
	}

	device, err := broadlink.Hello(address)
	if err != nil {
		log.Fatal(err)
	}
	defer device.Close()
	fmt.Println(device)
	if err := device.Auth(); err != nil {
		log.Fatal(err)
	}

	documentPath := config.documentPath()
	doc, err := loadDocument(documentPath)
	if err != nil {
		log.Fatal(err)
	}

	collector := metrics.NewCollector()
	if config.Metrics != nil && config.Metrics.ListenPort != "" {
		serveMetrics(collector, *config.Metrics)
	}

	var publisher *mqtt.Publisher
	if config.MQTT != nil && config.MQTT.Broker != "" {
		publisher = mqtt.NewPublisher(*config.MQTT)
		if err := publisher.Connect(); err != nil {
			log.Printf("MQTT publishing disabled: %v", err)
			publisher = nil
		} else {
			defer publisher.Disconnect()
		}
	}

	learner := newLearner(device, config.captureTimeout(), config.pollInterval(), os.Stdout)
	session, err := newSession(doc, prompt, learner, collector, publisher)
	if err != nil {
		log.Fatal(err)
	}

	// Whatever happens past this point, the document gets written
	// back: normal completion, user abort and failures alike.
	if err := runAndSave(session, doc, documentPath); err != nil {
		log.Fatal(err)
	}
}

func runAndSave(session *Session, doc *Document, path string) error {
	defer func() {
		if err := saveDocument(path, doc); err != nil {
			log.Printf("Saving document failed: %v", err)
		}
	}()
	return session.Run(context.Background())
}

func serveMetrics(collector *metrics.Collector, config metrics.Config) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collector)

	path := config.MetricsPath
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	go func() {
		if err := http.ListenAndServe(":"+config.ListenPort, mux); err != nil {
			log.Printf("Metrics endpoint failed: %v", err)
		}
	}()
}
