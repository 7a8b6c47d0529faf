// Package yamlcfg provides the YAML implementation of the config.Loader
// interface. It accepts the same description as the HCL loader:
//
//	cluster:
//	  name: analytics
//	  workers: 3
//	  memory:
//	    machine:
//	      ram_gib: 8
//	platform:
//	  type: nats
//	  config:
//	    url: nats://127.0.0.1:4222
package yamlcfg
