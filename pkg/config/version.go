package config

// Version is the version of the client, it's set at build time.
var Version = "dev"
