package taigamcp

// Version is the release version, overridable at build time via ldflags.
var Version = "0.2.0"
