package constants

// JobStatus is the status reported by the external conversion job.
type JobStatus string

// Stable values (these exact strings appear in the Datalab API payload).
const (
	JobStatusProcessing JobStatus = "processing" // submitted, not finished
	JobStatusComplete   JobStatus = "complete"   // payload ready
	JobStatusError      JobStatus = "error"      // terminal failure
)
