package types

// ExpectRequest declares that count more compilations of path are expected.
type ExpectRequest struct {
	// Source asset path; normalized server-side.
	// example: Models/Foo.fbx
	Path string `json:"path" example:"Models/Foo.fbx"`
	// Number of compilations to expect. Omitted means 1.
	// example: 1
	Count *uint32 `json:"count,omitempty" example:"1"`
}

// FinishedResponse is returned by GET /finished.
type FinishedResponse struct {
	// True when every expected asset has finished compiling.
	// example: false
	Finished bool `json:"finished" example:"false"`
	// Normalized keys still waiting on compilations.
	// example: ["models/foo.fbx"]
	Outstanding []string `json:"outstanding"`
}

// AssetStatus summarizes one tracked asset for /status.
type AssetStatus struct {
	// Normalized asset key.
	// example: models/foo.fbx
	Key string `json:"key" example:"models/foo.fbx"`
	// Cumulative expected compilations.
	// example: 2
	Expected uint64 `json:"expected" example:"2"`
	// Compilation-started notifications observed.
	// example: 2
	Started uint64 `json:"started" example:"2"`
	// Successful compilations observed.
	// example: 1
	Succeeded uint64 `json:"succeeded" example:"1"`
	// Failed compilations observed.
	// example: 0
	Failed uint64 `json:"failed" example:"0"`
	// Whether more compilations are still expected.
	// example: true
	Outstanding bool `json:"outstanding" example:"true"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Whether an observation window is open.
	// example: true
	Tracking bool `json:"tracking" example:"true"`
	// Every asset in the table, sorted by key.
	Assets []AssetStatus `json:"assets"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
