// Package config provides configuration structures and utilities for phishscan.
// It defines the detection settings, the optional .phishscan YAML file,
// and the XDG directories used for the history database.
package config
