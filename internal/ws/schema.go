package ws

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSnapshot Event = "snapshot"
	EventCheckIn  Event = "checkin"
	EventError    Event = "error"
	EventPing     Event = "ping"
)

// SnapshotResponse carries the current ledger when a teacher attaches to
// the monitor, so the view starts complete before live events arrive.
type SnapshotResponse struct {
	Event   Event       `json:"event"`
	Records interface{} `json:"records"`
}

// CheckInResponse relays one accepted check-in from the Redis channel.
type CheckInResponse struct {
	Event       Event  `json:"event"`
	StudentID   int    `json:"student_id"`
	StudentName string `json:"student_name,omitempty"`
	Status      string `json:"status"`
	CheckedInAt string `json:"checked_in_at"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PingResponse struct {
	Event Event `json:"event"`
}
