package domain

import "errors"

var (
	// ErrSubmissionNotFound is returned when a submission cannot be found by ID.
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrProblemNotFound is returned when the referenced problem does not exist.
	ErrProblemNotFound = errors.New("problem not found")

	// ErrContestNotFound is returned when the referenced contest or contest problem does not exist.
	ErrContestNotFound = errors.New("contest problem not found")

	// ErrInvalidLanguage is returned when an unsupported language is submitted.
	ErrInvalidLanguage = errors.New("invalid or unsupported language")

	// ErrToolchainUnavailable is returned when the language is known but its compiler or
	// interpreter is not installed on this host.
	ErrToolchainUnavailable = errors.New("toolchain for language is not available on this host")

	// ErrMissingField is returned when a required request field is empty.
	ErrMissingField = errors.New("missing required field")

	// ErrPayloadTooLarge is returned when the source code exceeds the size limit.
	ErrPayloadTooLarge = errors.New("source code payload exceeds maximum size (1MB)")

	// ErrEmptySourceCode is returned when source code is empty.
	ErrEmptySourceCode = errors.New("source code cannot be empty")

	// ErrNotRegistered is returned when the submitter is not registered for the contest.
	ErrNotRegistered = errors.New("user is not registered for this contest")

	// ErrLanguageNotAllowed is returned when a contest problem forbids the language.
	ErrLanguageNotAllowed = errors.New("language is not allowed for this contest problem")

	// ErrContestNotActive is returned when submitting outside the contest window.
	ErrContestNotActive = errors.New("contest is not currently running")

	// ErrNoTestCases is returned when a problem has nothing to judge against.
	ErrNoTestCases = errors.New("problem has no test cases")

	// ErrPublishFailed is returned when dispatching the judge job fails.
	ErrPublishFailed = errors.New("failed to dispatch submission for judging")

	// ErrRateLimitExceeded is returned when API rate limit is hit.
	ErrRateLimitExceeded = errors.New("rate limit exceeded, try again later")
)
