package config

import "flag"

var (
	flagConfig        = flag.String("config", "", "Path to config file")
	flagDebug         = flag.Bool("debug", false, "Enable debug logging")
	flagWorkers       = flag.Int("workers", 0, "Sectors built in parallel")
	flagSlopeDivisor  = flag.Float64("slope-divisor", 0, "Heinum divisor for sloped surfaces")
	flagCeilingSlopes = flag.Bool("ceiling-slopes", false, "Honor ceiling slope flags")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the positional arguments left after flag parsing.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWorkers > 0 {
		cfg.Geometry.Workers = *flagWorkers
	}
	if *flagSlopeDivisor > 0 {
		cfg.Geometry.SlopeDivisor = float32(*flagSlopeDivisor)
	}
	if *flagCeilingSlopes {
		cfg.Geometry.CeilingSlopes = true
	}
}
