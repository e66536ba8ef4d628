package domain

import "errors"

var (
	// ErrInvalidQuery signals a malformed ranking query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrRecordNotFound signals a missing person record.
	ErrRecordNotFound = errors.New("record not found")
	// ErrAlreadyResolved signals a second resolution attempt on a record.
	ErrAlreadyResolved = errors.New("record already resolved")
	// ErrVectorDimMismatch signals an embedding dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrNoFaceDetected signals that the face model found no face in the image.
	ErrNoFaceDetected = errors.New("no face detected")
	// ErrEmbeddingProvider signals a face model service failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrDependencyUnavailable signals an unreachable record store or geocoder.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrLocationNotFound signals that the geocoder returned no results for an address.
	ErrLocationNotFound = errors.New("location not found")
	// ErrInvalidProfile signals a weight profile whose weights do not sum to 1.
	ErrInvalidProfile = errors.New("invalid weight profile")
)
