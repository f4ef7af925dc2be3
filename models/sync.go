package models

// SyncEventSynced is the only event type broadcast between running instances.
const SyncEventSynced = "synced"

// SyncEvent is the message broadcast to other instances sharing the same
// local store after a record transitions to synced. Receivers treat it as a
// cache-invalidation hint and re-read the store; the payload is never applied
// as authoritative state.
type SyncEvent struct {
	Type     string `json:"type"`
	LocalID  string `json:"local_id"`
	ServerID string `json:"server_id"`
}

// SyncResult summarises one sync engine run.
type SyncResult struct {
	// Ok is true when every unsynced record was delivered.
	Ok bool `json:"ok"`

	// Pushed is the number of records acknowledged during the run.
	Pushed int `json:"pushed"`

	// Failed is the number of records that exhausted their retry budget
	// and remain unsynced.
	Failed int `json:"failed"`
}
