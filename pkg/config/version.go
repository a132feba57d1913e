package config

// Version is overridden at build time with -ldflags "-X specgen/pkg/config.Version=...".
var Version = "dev"
