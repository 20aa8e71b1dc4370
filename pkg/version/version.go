package version

// Build holds the build identifier, injected via -ldflags. Default "dev".
var Build = "dev"

// UserAgent is sent with every client request.
func UserAgent() string {
	return "fuel-client/" + Build
}
