package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, nothing to process)
	ExitConfigError = 2 // Configuration error (unreadable config, missing API key)
	ExitDataError   = 3 // Data error (missing or undecodable input)
	ExitOutputError = 4 // An output file could not be written
)
