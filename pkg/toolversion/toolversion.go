package toolversion

var (
	version   string
	commit    string
	buildTime string
)

// Version returns the tool version.
func Version() string {
	if version == "" {
		version = "dev"
	}

	return version
}

// Commit returns the git commit the binary was built from.
func Commit() string {
	return commit
}

// BuildTime returns the build timestamp.
func BuildTime() string {
	return buildTime
}
