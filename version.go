package vestibule

// Version is the release version, overridden at build time with
// -ldflags "-X github.com/aretw0/vestibule.Version=...".
var Version = "v0.1.0-dev"
