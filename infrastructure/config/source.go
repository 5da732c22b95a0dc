package config

import "time"

// Source hands out the live configuration. The server runs on a
// file-backed Watcher; one-shot runs use a Static source.
type Source interface {
	Current() *Config
	Generation() uint64
	RebuildInterval() time.Duration
}

// Static serves one fixed configuration
type Static struct {
	cfg *Config
}

func NewStatic(cfg *Config) *Static {
	return &Static{cfg: cfg}
}

func (s *Static) Current() *Config { return s.cfg }

func (s *Static) Generation() uint64 { return 0 }

func (s *Static) RebuildInterval() time.Duration {
	return time.Duration(s.cfg.Updater.Interval)
}
