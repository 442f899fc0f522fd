// Package config provides configuration structures and utilities for web2proposal.
// It defines the options for fetching pages, talking to the language model,
// and writing the proposal, and loads them from the YAML configuration file
// and the environment.
package config
