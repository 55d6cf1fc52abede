package domain

import "errors"

var (
	// ErrNotFound marks a referenced project or question that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrGenerationFailed marks an external call that returned no usable content.
	ErrGenerationFailed = errors.New("completion returned no content")

	// ErrGenerationTimeout marks an external call that exceeded its deadline.
	ErrGenerationTimeout = errors.New("completion timed out")

	// ErrMalformedCompletion marks a completion that could not be decoded
	// into the expected structured form.
	ErrMalformedCompletion = errors.New("completion could not be decoded")

	// ErrPartialAggregation marks a fan-out where one or more branches failed.
	ErrPartialAggregation = errors.New("one or more question analyses failed")

	// ErrStore marks an unavailable or failing persistence layer.
	ErrStore = errors.New("artifact store failure")
)
