package versioning

// Build information, set with -ldflags "-X github.com/0xPolygon/edge-xcc/versioning.Version=..."
var (
	Version   = "v0.1.0-dev"
	Branch    string
	Commit    string
	BuildTime string
)
