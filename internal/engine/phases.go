package engine

// Phase tracks how far the current operation has progressed. Every
// operation walks the same sequence; an error moves it to PhaseAborted
// after compensating cleanup has run.
type Phase string

const (
	PhaseIdle              Phase = "Idle"
	PhaseMetadataPrepared  Phase = "MetadataPrepared"
	PhaseVerified          Phase = "Verified"
	PhaseConflictsResolved Phase = "ConflictsResolved"
	PhaseStorageReady      Phase = "StorageReady"
	PhaseDataTransferred   Phase = "DataTransferred"
	PhaseRegistered        Phase = "Registered"
	PhaseFinalized         Phase = "Finalized"
	PhaseAborted           Phase = "Aborted"
)

// IsTerminal returns true when no further transitions can happen.
func (p Phase) IsTerminal() bool {
	return p == PhaseFinalized || p == PhaseAborted
}
