package sw

// PlatformID names the DUT's operating system/platform.
type PlatformID string

// PlatformSupport is the platform collaborator: it rebuilds and
// reflashes DUT firmware, and loads/unloads applications onto it. The
// execution engine never talks to the build toolchain or loader
// directly — only through this interface, called exclusively from the
// executor's own goroutine (spec.md §5's shared-resource policy).
type PlatformSupport interface {
	// Reconfigure rebuilds (and, on success, flashes) DUT firmware
	// instrumented for the given trace points. An empty trace point
	// list permits a plain, uninstrumented build.
	Reconfigure(tracePoints []string) (*Spec, error)

	// Load installs the named application onto the DUT.
	Load(appID string) error

	// Unload removes the named application from the DUT.
	Unload(appID string) error

	// LoadedSoftware returns the set of application IDs currently
	// installed on the DUT, to the platform's best knowledge.
	LoadedSoftware() map[string]struct{}

	// Platform names the DUT's platform.
	Platform() PlatformID
}
