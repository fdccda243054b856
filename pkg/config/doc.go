// Package config provides application configuration from a YAML file and
// environment variables.
//
// # Overview
//
// Load starts from defaults, applies the YAML file, then environment
// overrides, and validates the result.
//
// # Configuration Structure
//
// .slnreload.yaml:
//
//	solution: App.sln
//	filter: App.slnf
//	resolver:
//	  max_projects: 10000
//	  timeout: 60s
//	  case_sensitivity: auto  # auto, sensitive, insensitive
//	  properties:
//	    Configuration: Debug
//	watch:
//	  delay: 500ms
//	server:
//	  addr: ":8080"
//	observability:
//	  log_level: info  # debug, info, warn, error
//	  log_format: text # text, json
//
// Environment overrides:
//
//	SLNRELOAD_SOLUTION="App.sln"
//	SLNRELOAD_FILTER="App.slnf"
//	SLNRELOAD_MAX_PROJECTS="10000"
//	SLNRELOAD_TIMEOUT="60s"
//	SLNRELOAD_CASE_SENSITIVITY="insensitive"
//	SLNRELOAD_PROPERTIES="Configuration=Release;Platform=x64"
//	SLNRELOAD_WATCH_DELAY="500ms"
//	SLNRELOAD_ADDR=":8080"
//	SLNRELOAD_LOG_LEVEL="debug"
//	SLNRELOAD_LOG_FORMAT="json"
//	SLNRELOAD_METRICS_ENABLED="true"
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//		log.Fatal(err)
//	}
//	logger := observability.NewLogger(cfg.LogLevel(), cfg.LogFormat(), os.Stderr)
package config
