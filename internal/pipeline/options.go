package pipeline

// Options is the mutable run-time configuration of the workflow: a fixed set
// of boolean feature toggles. Callers read the toggles to decide whether to
// request a stage at all; the manager itself branches only on Caching.
type Options struct {
	Linting            bool
	DependencyAnalysis bool
	Caching            bool
	Realtime           bool
	Generation         bool
	PackageResolution  bool
}

// DefaultOptions enables every toggle except Realtime, which needs a
// reachable preview endpoint to be useful.
func DefaultOptions() Options {
	return Options{
		Linting:            true,
		DependencyAnalysis: true,
		Caching:            true,
		Realtime:           false,
		Generation:         true,
		PackageResolution:  true,
	}
}
