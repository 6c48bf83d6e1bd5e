// Command timerinfo prints the static resource needs of registered
// timer platforms: the physical regions a board integrator must map
// and the interrupt lines to route, before any hardware is touched.
//
// Usage:
//
//	timerinfo -all
//	timerinfo -platform rockpro64
//	timerinfo -config board.yml
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"timerhal-go/drivers/pcf8563"
	"timerhal-go/platform"
	"timerhal-go/platform/hifive"
	"timerhal-go/platform/pcfrtc"
	"timerhal-go/x/tickmath"

	// Link the remaining board compositions into the registry.
	_ "timerhal-go/platform/hostsim"
	_ "timerhal-go/platform/rockpro64"
	_ "timerhal-go/platform/rpi3"
)

// FileConfig is the board file: a platform name plus per-platform
// options in natural units.
type FileConfig struct {
	Platform string         `yaml:"platform"`
	HiFive   *HiFiveOptions `yaml:"hifive,omitempty"`
	PCFRTC   *PCFRTCOptions `yaml:"pcfrtc,omitempty"`
}

type HiFiveOptions struct {
	ClockHz uint64 `yaml:"clock_hz"`
	Scale   uint8  `yaml:"scale"`
}

type PCFRTCOptions struct {
	Address uint16 `yaml:"address"`
	Source  string `yaml:"source"` // 4096hz | 64hz | 1hz
}

func main() {
	name := flag.String("platform", "", "platform to describe")
	configPath := flag.String("config", "", "YAML board file (platform + options)")
	all := flag.Bool("all", false, "describe every registered platform")
	flag.Parse()

	if *all {
		for _, n := range platform.Names() {
			describe(n, nil)
		}
		return
	}

	var cfg *FileConfig
	if *configPath != "" {
		c, err := loadConfig(*configPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		cfg = c
	}
	n := *name
	if n == "" && cfg != nil {
		n = cfg.Platform
	}
	if n == "" {
		fmt.Fprintln(os.Stderr, "usage: timerinfo -all | -platform <name> | -config <board.yml>")
		fmt.Fprintln(os.Stderr, "platforms:", strings.Join(platform.Names(), " "))
		os.Exit(2)
	}
	describe(n, cfg)
}

func loadConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c FileConfig
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

func describe(name string, cfg *FileConfig) {
	b, ok := platform.Lookup(name)
	if !ok {
		log.Fatalf("unknown platform %q (have: %s)", name, strings.Join(platform.Names(), " "))
	}
	d := b.Describe()

	fmt.Println(name)
	if len(d.Regions) == 0 {
		fmt.Println("  regions: none")
	}
	for i, r := range d.Regions {
		fmt.Printf("  region %d: 0x%08x +0x%x\n", i, r.Addr, r.Size)
	}
	if len(d.IRQs) == 0 {
		fmt.Println("  irqs: none")
	}
	for i, q := range d.IRQs {
		fmt.Printf("  irq %d: line %d\n", i, q.Number)
	}
	printOptions(name, cfg)
	fmt.Println()
}

// printOptions derives tick rates from board options with the same
// arithmetic the platform applies when it builds.
func printOptions(name string, cfg *FileConfig) {
	if cfg == nil {
		return
	}
	switch name {
	case hifive.Name:
		if cfg.HiFive == nil {
			return
		}
		p := hifive.Params{
			Clock: physic.Frequency(cfg.HiFive.ClockHz) * physic.Hertz,
			Scale: cfg.HiFive.Scale,
		}
		rate := p.TickRate()
		fmt.Printf("  tick: %s (%d ns)\n", rate, tickmath.PeriodNs(rate))
	case pcfrtc.Name:
		if cfg.PCFRTC == nil {
			return
		}
		src, err := parseSource(cfg.PCFRTC.Source)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		rate := src.Frequency()
		fmt.Printf("  tick: %s (%d ns)\n", rate, tickmath.PeriodNs(rate))
		fmt.Printf("  horizon: %d ticks (%d ns)\n",
			pcf8563.MaxTicks, tickmath.TicksToNs(pcf8563.MaxTicks, rate))
		if cfg.PCFRTC.Address != 0 {
			fmt.Printf("  i2c address: 0x%02x\n", cfg.PCFRTC.Address)
		}
	}
}

func parseSource(s string) (pcf8563.Source, error) {
	switch strings.ToLower(s) {
	case "", "64hz":
		return pcf8563.Src64Hz, nil
	case "4096hz":
		return pcf8563.Src4096Hz, nil
	case "1hz":
		return pcf8563.Src1Hz, nil
	}
	return 0, fmt.Errorf("unknown countdown source %q", s)
}
