package models

// QueueMessage is the wire unit exchanged between the reader and the
// processor through the broker. It carries exactly one trimmed,
// non-empty log line together with the name of the file it came from.
type QueueMessage struct {
	Line       string `json:"line"`
	SourceFile string `json:"source_file"` // filename only, never a path
}
