package spokesperson

// Version is set at build time with -ldflags "-X github.com/Tyler-Pritchard/Spokesperson.Version=...".
var Version = "dev"
