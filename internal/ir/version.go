package ir

// Version constants for the journal schema and engine.
const (
	// JournalVersion is the round journal record version.
	JournalVersion = "1"

	// EngineVersion is the collsync engine version.
	EngineVersion = "0.1.0"
)
