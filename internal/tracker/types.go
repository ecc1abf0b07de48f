package tracker

// Record aggregates what is known about one asset key.
type Record struct {
	Expected  uint64
	Started   uint64
	Succeeded uint64
	Failed    uint64
}

// Finished is the number of compilations that ended, successfully or not.
func (r Record) Finished() uint64 { return r.Succeeded + r.Failed }

// Outstanding reports whether fewer compilations finished than were expected.
func (r Record) Outstanding() bool { return r.Expected > r.Finished() }

// AssetStatus pairs a normalized key with its record.
type AssetStatus struct {
	Key string
	Record
}

// Snapshot is a read-only copy of the tracker state, sorted by key.
type Snapshot struct {
	Tracking bool
	Assets   []AssetStatus
}
