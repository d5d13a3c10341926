package store

import "time"

// Install is the registry row for one installed package. The install
// directory and its provenance file remain authoritative; the registry only
// remembers what was done and when.
type Install struct {
	Name        string
	Channel     string // "git" or "local"
	Source      string // clone URL or local source path
	InstallDir  string
	WrapperPath string
	InstalledAt time.Time
	UpdatedAt   time.Time
}
