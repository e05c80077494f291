// Package config provides configuration parsing for axon projects.
//
// The configuration is stored in axon.json at the project root.
// This package handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "name": "checkout",
//	  "engine": {
//	    "maxEvalDepth": 256,
//	    "eagerCycleCheck": true,
//	    "diagnosticLimit": 128
//	  },
//	  "inspector": {
//	    "address": "127.0.0.1:7433",
//	    "metrics": true
//	  },
//	  "bench": {
//	    "widths": [1, 10, 100, 1000],
//	    "heights": [1, 10, 100, 1000],
//	    "iterations": 1000
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Inspector:", cfg.Inspector.Address)
package config
