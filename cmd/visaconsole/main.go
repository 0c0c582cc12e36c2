// Command visaconsole is an interactive SCPI console for instruments
// reachable over raw TCP sockets.
//
// Command set:
//
//	r       - read from device
//	w <msg> - write <msg> to device
//	q <msg> - write <msg> to device and read reply
//	h       - print the help message
//	exit    - exit console
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"gopkg.in/yaml.v3"

	"github.com/xiabin827/govisa"
)

// consoleConfig is the yaml configuration for the console.
type consoleConfig struct {
	// Filter is the discovery filter expression (default "?*")
	Filter string `yaml:"filter"`

	// Resource is an explicit resource name; overrides discovery
	Resource string `yaml:"resource"`

	// TimeoutMS is the operation timeout in milliseconds
	TimeoutMS int `yaml:"timeout_ms"`

	// LockMode is one of None, Shared, Exclusive
	LockMode string `yaml:"lock_mode"`

	// OnClose commands are sent right before the device is closed
	OnClose []string `yaml:"on_close"`
}

func defaultConsoleConfig() *consoleConfig {
	return &consoleConfig{
		Filter:    "?*",
		TimeoutMS: 2000,
		LockMode:  "None",
	}
}

func loadConsoleConfig(path string) (*consoleConfig, error) {
	config := defaultConsoleConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}
	return config, nil
}

func parseLockMode(s string) (govisa.AccessMode, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return govisa.AccessModeNone, nil
	case "shared":
		return govisa.AccessModeShared, nil
	case "exclusive":
		return govisa.AccessModeExclusive, nil
	}
	return govisa.AccessModeNone, fmt.Errorf("unknown lock mode %q", s)
}

func usage() {
	fmt.Print("\n------------------------------------------------------\n" +
		"Command set:\n\t" +
		"r - read from device\n\t" +
		"w <msg> - write <msg> to device\n\t" +
		"q <msg> - write <msg> to device and read reply\n\t" +
		"h - print this help message\n\t" +
		"exit - exit console\n" +
		"------------------------------------------------------\n")
}

// parseMessage splits a console line into the command letter and payload.
func parseMessage(line string) (byte, string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return '?', ""
	}
	fields := strings.SplitN(line, " ", 2)
	msg := ""
	if len(fields) > 1 {
		msg = strings.TrimSpace(fields[1])
	}
	return line[0], msg
}

func run() error {
	configPath := flag.String("config", "", "path to yaml config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	config, err := loadConsoleConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	lockMode, err := parseLockMode(config.LockMode)
	if err != nil {
		return err
	}

	devConfig := govisa.DefaultConfig()
	devConfig.Timeout = time.Duration(config.TimeoutMS) * time.Millisecond
	if *debug {
		devConfig.Logger = log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds)
	}

	dev := govisa.NewDevice(devConfig)
	defer dev.Destroy()

	name := config.Resource
	if name == "" {
		inst := dev.FindInstruments(config.Filter)
		if len(inst) < 1 {
			return errors.New("failed to find device")
		}
		name = inst[0]
	}

	if !dev.Open(name, lockMode, devConfig.Timeout) {
		return fmt.Errorf("failed to open device: %s", dev.GetLastError())
	}

	desc := dev.DeviceDescription()
	if desc == "" {
		desc = name
	}
	fmt.Printf("[IFO]: Connected to device - %s\n", desc)

	if len(config.OnClose) > 0 {
		dev.OnCloseAll(config.OnClose)
	}

	usage()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF || strings.TrimSpace(line) == "exit" {
			break
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		cmd, msg := parseMessage(line)
		switch cmd {
		case 'r', 'R':
			fmt.Printf("[REC]: %s\n", dev.Read(0))
		case 'w', 'W':
			fmt.Printf("[WRITE]: %s\n", msg)
			if !dev.Write(msg) {
				fmt.Fprintf(os.Stderr, "[ERROR]: %s\n", dev.GetLastError())
			}
		case 'q', 'Q':
			fmt.Printf("[QUERY]: %s\n", msg)
			fmt.Printf("[REC]: %s\n", dev.Query(msg))
		case 'h', 'H':
			usage()
		default:
			fmt.Fprintln(os.Stderr, "[ERROR]: Invalid command!")
			usage()
		}
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR]: %v\n", err)
		os.Exit(1)
	}
}
