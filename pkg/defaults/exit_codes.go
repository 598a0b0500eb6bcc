package defaults

// Exit codes for the CLI.
const (
	ExitSuccess   = 0 // Clean exit, or issues found with no issue code configured
	ExitFailure   = 1 // Parse, schema, I/O or write failure
	ExitUserError = 2 // Invalid arguments or configuration
	ExitPolicy    = 3 // Policy thresholds exceeded
)
