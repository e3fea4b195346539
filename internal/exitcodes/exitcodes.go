package exitcodes

// Exit codes for the dirkeep binaries
// These codes form the operational contract with CI/CD and operators
const (
	Success       = 0 // Successful execution, zero failures
	InvalidConfig = 2 // Configuration, usage, or flag error
	InvalidParent = 3 // Parent path missing, not a directory, or protected
	PruneFailures = 4 // Prune finished but one or more entries survived removal
	ArchiveError  = 5 // Archive pipeline or verification failure
)
