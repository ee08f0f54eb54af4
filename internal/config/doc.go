// Package config loads weft.yaml, the configuration of the weft command.
//
// # Configuration File Structure
//
//	server:
//	  address: ":8080"
//	  read_timeout: 60s
//	  write_timeout: 10s
//	  heartbeat: 30s
//	  max_event_queue: 256
//	  max_sessions: 0
//	  frame_interval: 16ms
//	log:
//	  level: info
//	  format: text
//	metrics:
//	  namespace: weft
//	render:
//	  sanitize_raw_html: true
//
// Every key is optional; omitted keys keep their defaults. Command-line
// flags override file values.
//
// # Usage
//
//	path, err := config.Find(".")
//	if err != nil {
//	    return err
//	}
//	cfg, err := config.Load(path)
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config
