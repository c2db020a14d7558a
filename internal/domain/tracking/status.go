package tracking

import "time"

// LoadState is the lifecycle state of one platform's pixel script
type LoadState string

// Load states. Loaded and Failed are terminal: an injected vendor script
// cannot be unloaded, so neither state is left without a process restart.
const (
	LoadStateUnloaded LoadState = "unloaded"
	LoadStateLoading  LoadState = "loading"
	LoadStateLoaded   LoadState = "loaded"
	LoadStateFailed   LoadState = "failed"
)

// Terminal reports whether the state can never transition again
func (s LoadState) Terminal() bool {
	return s == LoadStateLoaded || s == LoadStateFailed
}

// LoadStatus is the observable load state of one platform, one instance
// per platform per process lifetime
type LoadStatus struct {
	Platform  Platform      `json:"platform"`
	State     LoadState     `json:"state"`
	LastError string        `json:"last_error,omitempty"`
	LoadTime  time.Duration `json:"load_time_ms,omitempty"`
	Attempts  int           `json:"attempts"`
}
