package domain

import "errors"

// Transfer errors
var (
	// ErrNotReady indicates the device did not answer the handshake in time
	ErrNotReady = errors.New("device not ready")

	// ErrDeviceError indicates the device reported an explicit ERROR token
	ErrDeviceError = errors.New("device reported error")

	// ErrDesync indicates a protocol token did not match the expected state
	ErrDesync = errors.New("protocol desync")

	// ErrStatusUnclear indicates the transfer ended without an explicit
	// outcome; callers must treat this as a warning, not success or failure
	ErrStatusUnclear = errors.New("transfer status unclear")

	// ErrChannelFailure indicates an I/O fault on the byte channel; always fatal
	ErrChannelFailure = errors.New("channel failure")
)

// Codec errors
var (
	// ErrNoJSON indicates no well-formed JSON object was found in a response
	ErrNoJSON = errors.New("no JSON in response")

	// ErrNoResponse indicates a command produced zero bytes before timeout
	ErrNoResponse = errors.New("no response from device")
)

// Remote filesystem errors
var (
	// ErrNotFound indicates the remote path does not exist
	ErrNotFound = errors.New("remote path not found")

	// ErrAlreadyExists indicates the remote path already exists
	ErrAlreadyExists = errors.New("remote path already exists")

	// ErrDepthExceeded indicates remote listing recursion hit the depth bound
	ErrDepthExceeded = errors.New("listing depth exceeded")
)

// Planning and verification errors
var (
	// ErrPlanningError indicates the local tree could not be scanned
	ErrPlanningError = errors.New("planning error")

	// ErrVerificationMismatch indicates a post-transfer content or version mismatch
	ErrVerificationMismatch = errors.New("verification mismatch")
)

// Config errors
var (
	// ErrConfigNotFound indicates config file not found
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalid indicates config file is malformed
	ErrConfigInvalid = errors.New("invalid config")
)
