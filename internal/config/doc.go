// Package config provides configuration parsing for sharedstate tools.
//
// The configuration is stored in sharedstate.json (or sharedstate.yaml)
// at the project root. This package handles loading, saving, validating
// and watching it.
//
// # Configuration File Structure
//
//	{
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  },
//	  "runtime": {
//	    "maxFlushPasses": 100,
//	    "dispatchQueue": 256,
//	    "debug": false
//	  },
//	  "inspector": {
//	    "enabled": true,
//	    "host": "localhost",
//	    "port": 7070
//	  },
//	  "metrics": {
//	    "prometheus": true,
//	    "namespace": "sharedstate"
//	  },
//	  "persist": {
//	    "backend": "s3",
//	    "bucket": "my-app-state",
//	    "prefix": "states/"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.LoadOptional(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Inspector:", cfg.InspectorAddress())
package config
