// Command garage-door controls a garage door opener: it watches the
// position sensor and manual trigger over GPIO, pulses the opener
// relay, and bridges door state and commands over MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/garage-door/internal/config"
	"github.com/sweeney/garage-door/internal/controller"
	"github.com/sweeney/garage-door/internal/door"
	"github.com/sweeney/garage-door/internal/gpio"
	"github.com/sweeney/garage-door/internal/mqtt"
	"github.com/sweeney/garage-door/internal/status"
	"github.com/sweeney/garage-door/internal/web"
)

type options struct {
	configPath string
	host       string
	port       int
	clientID   string
	keepAlive  time.Duration
	base       string
	name       string
	uniqueID   string
	chip       string
	pinLed     int
	pinRelay   int
	pinStatus  int
	pinTrigger int
	tick       time.Duration
	httpAddr   string
	printState bool
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "YAML config file (optional)")
	flag.StringVar(&o.host, "broker-host", "192.168.1.200", "MQTT broker host")
	flag.IntVar(&o.port, "broker-port", 1883, "MQTT broker port")
	flag.StringVar(&o.clientID, "client-id", "garage-door", "MQTT client ID")
	flag.DurationVar(&o.keepAlive, "keep-alive", 30*time.Second, "MQTT keep-alive interval")
	flag.StringVar(&o.base, "base", "home/garage/door", "Base MQTT topic path")
	flag.StringVar(&o.name, "name", "Garage Door", "Device name for discovery")
	flag.StringVar(&o.uniqueID, "unique-id", "garage_door", "Unique device ID for discovery")
	flag.StringVar(&o.chip, "chip", gpio.DefaultChip, "GPIO character device")
	flag.IntVar(&o.pinLed, "pin-led", gpio.DefaultPinLed, "BCM pin for the activity LED (negative to disable)")
	flag.IntVar(&o.pinRelay, "pin-relay", gpio.DefaultPinRelay, "BCM pin for the opener relay")
	flag.IntVar(&o.pinStatus, "pin-status", gpio.DefaultPinStatus, "BCM pin for the position sensor")
	flag.IntVar(&o.pinTrigger, "pin-trigger", gpio.DefaultPinTrigger, "BCM pin for the manual trigger")
	flag.DurationVar(&o.tick, "tick", time.Minute, "State republish interval (0 to disable)")
	flag.StringVar(&o.httpAddr, "http", ":8080", "HTTP status address (empty to disable)")
	flag.BoolVar(&o.printState, "print-state", false, "Print current door state and exit")
	flag.Parse()

	if err := applyConfigFile(&o, flagsSet()); err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if err := run(o); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// flagsSet returns the names of flags given explicitly on the command
// line. Those take precedence over the config file.
func flagsSet() map[string]bool {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// applyConfigFile overlays values from the YAML file onto o for every
// setting whose flag was left at its default.
func applyConfigFile(o *options, set map[string]bool) error {
	if o.configPath == "" {
		return nil
	}
	f, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	if !set["broker-host"] && f.Broker.Host != "" {
		o.host = f.Broker.Host
	}
	if !set["broker-port"] && f.Broker.Port != 0 {
		o.port = f.Broker.Port
	}
	if !set["client-id"] && f.Broker.ClientID != "" {
		o.clientID = f.Broker.ClientID
	}
	if !set["keep-alive"] && f.Broker.KeepAlive != 0 {
		o.keepAlive = time.Duration(f.Broker.KeepAlive) * time.Second
	}
	if !set["name"] && f.Device.Name != "" {
		o.name = f.Device.Name
	}
	if !set["unique-id"] && f.Device.UniqueID != "" {
		o.uniqueID = f.Device.UniqueID
	}
	if !set["base"] && f.Device.Base != "" {
		o.base = f.Device.Base
	}
	if !set["chip"] && f.GPIO.Chip != "" {
		o.chip = f.GPIO.Chip
	}
	if !set["pin-led"] && f.GPIO.Led != nil {
		o.pinLed = *f.GPIO.Led
	}
	if !set["pin-relay"] && f.GPIO.Relay != nil {
		o.pinRelay = *f.GPIO.Relay
	}
	if !set["pin-status"] && f.GPIO.Status != nil {
		o.pinStatus = *f.GPIO.Status
	}
	if !set["pin-trigger"] && f.GPIO.Trigger != nil {
		o.pinTrigger = *f.GPIO.Trigger
	}
	if !set["tick"] && f.TickSeconds != nil {
		o.tick = time.Duration(*f.TickSeconds) * time.Second
	}
	if !set["http"] && f.HTTPAddr != nil {
		o.httpAddr = *f.HTTPAddr
	}
	return nil
}

func run(o options) error {
	// Export and configure all lines; fatal if any fails.
	hw, err := gpio.RequestHardware(o.chip, o.pinLed, o.pinRelay, o.pinStatus, o.pinTrigger)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer hw.Close()

	// Print state mode
	if o.printState {
		state, err := door.ReadState(hw.Status)
		if err != nil {
			return err
		}
		fmt.Println(state)
		return nil
	}

	bus, err := mqtt.NewRealBus(mqtt.Config{
		Host:      o.host,
		Port:      o.port,
		ClientID:  o.clientID,
		KeepAlive: o.keepAlive,
	})
	if err != nil {
		return fmt.Errorf("connect broker: %w", err)
	}
	defer bus.Close()

	topics := mqtt.NewTopics(o.base)
	tracker := status.NewTracker(time.Now(), status.Config{
		Broker:   fmt.Sprintf("%s:%d", o.host, o.port),
		Base:     o.base,
		TickMs:   o.tick.Milliseconds(),
		HTTPAddr: o.httpAddr,
	})
	tracker.SetMQTTConnected(bus.IsConnected())

	// Start HTTP status server
	if o.httpAddr != "" {
		srv := web.New(o.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", o.httpAddr)
	}

	log.Printf("started: broker=%s:%d base=%s tick=%v", o.host, o.port, o.base, o.tick)

	// A nil tick channel never fires: -tick 0 disables reconciliation.
	var tick <-chan time.Time
	if o.tick > 0 {
		ticker := time.NewTicker(o.tick)
		defer ticker.Stop()
		tick = ticker.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	pulser := door.NewPulser(hw, nil)
	loop := controller.New(hw, bus, topics, pulser, tracker, o.name, o.uniqueID)
	return loop.Run(tick, sigCh)
}
