package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scalefx/hubsync/internal/channel"
	"github.com/scalefx/hubsync/internal/codec"
	"github.com/scalefx/hubsync/internal/config"
	"github.com/scalefx/hubsync/internal/domain"
	"github.com/scalefx/hubsync/internal/lock"
	"github.com/scalefx/hubsync/internal/logger"
	"github.com/scalefx/hubsync/internal/remotefs"
	"github.com/scalefx/hubsync/internal/transfer"
)

var (
	flagConfig   string
	flagPort     string
	flagBaud     int
	flagLogLevel string
	flagLogJSON  bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "hubsync",
	Short: "Sync and manage files on a HubFX device over its serial console",
	Long: `hubsync talks to a HubFX device over its USB serial console:
it mirrors a local sound tree onto the SD card, transfers single files,
pushes configuration, and verifies flashed firmware.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return err
		}

		if flagPort != "" {
			cfg.Serial.Port = flagPort
		}
		if cmd.Flags().Changed("baud") {
			cfg.Serial.Baud = flagBaud
		}
		if flagLogLevel != "" {
			cfg.Logging.Level = flagLogLevel
		}
		if flagLogJSON {
			cfg.Logging.Format = "json"
		}

		return logger.Init(logger.Config{
			Level:  logger.ParseLevel(cfg.Logging.Level),
			Format: logger.ParseFormat(cfg.Logging.Format),
			File: logger.FileConfig{
				Enabled:   cfg.Logging.File != "",
				Path:      cfg.Logging.File,
				MaxSizeMB: cfg.Logging.MaxSize,
			},
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Shutdown()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagConfig, "config", "c", "", "config file (default: search hubsync.yaml)")
	pf.StringVarP(&flagPort, "port", "p", "", "serial port (default: auto-detect)")
	pf.IntVar(&flagBaud, "baud", 115200, "serial baud rate")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.BoolVar(&flagLogJSON, "log-json", false, "log in JSON format")
}

// session bundles everything a device command needs
type session struct {
	Port   string
	Ch     *channel.SerialChannel
	Codec  *codec.Codec
	Engine *transfer.Engine
	View   *remotefs.View

	lock *lock.PortLock
}

// openSession locks the port, opens the serial channel and builds the
// protocol layers on top of it.
func openSession() (*session, error) {
	port := cfg.Serial.Port
	if port == "" {
		ports, err := channel.ListPorts()
		if err != nil {
			return nil, fmt.Errorf("port enumeration failed: %w", err)
		}
		detected, ok := channel.Detect(ports)
		if !ok {
			return nil, fmt.Errorf("no device found; specify --port")
		}
		port = detected
		logger.Get().Info("device detected", "port", port)
	}

	portLock, err := lock.New("", port)
	if err != nil {
		return nil, err
	}
	if err := portLock.Acquire(); err != nil {
		return nil, err
	}

	ch, err := channel.OpenSerial(port, cfg.Serial.Baud)
	if err != nil {
		portLock.Release()
		return nil, err
	}

	opts := transfer.DefaultOptions()
	opts.Verb = cfg.Transfer.Verb
	opts.AckMode = domain.AckMode(cfg.Transfer.AckMode)
	opts.ChunkSize = cfg.Transfer.ChunkSize
	if cfg.Transfer.ReadyTimeout > 0 {
		opts.ReadyTimeout = cfg.Transfer.ReadyTimeout
	}
	if cfg.Transfer.ChunkTimeout > 0 {
		opts.ChunkTimeout = cfg.Transfer.ChunkTimeout
	}
	if cfg.Transfer.CompleteTimeout > 0 {
		opts.CompleteTimeout = cfg.Transfer.CompleteTimeout
	}

	c := codec.New(ch)
	return &session{
		Port:   port,
		Ch:     ch,
		Codec:  c,
		Engine: transfer.NewEngine(ch, opts),
		View:   remotefs.NewView(c),
		lock:   portLock,
	}, nil
}

// Close releases the serial port and its lock
func (s *session) Close() {
	if err := s.Ch.Close(); err != nil {
		logger.Get().Warn("serial close failed", "port", s.Port, "error", err)
	}
	if err := s.lock.Release(); err != nil {
		logger.Get().Warn("lock release failed", "port", s.Port, "error", err)
	}
}
