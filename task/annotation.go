package task

// Annotation is a timestamped note attached to a task. Taskwarrior keeps
// annotations as an ordered list; the order is meaningful and must survive a
// decode/encode round trip.
type Annotation struct {
	Entry       Timestamp `json:"entry"`
	Description string    `json:"description"`
}
