package domain

import "errors"

var (
	// ErrMalformedMessage means a tracker message does not match the grammar.
	ErrMalformedMessage = errors.New("malformed tracker message")

	// ErrNoGPSData means an image has EXIF but no GPS block. Expected for
	// indoor shots; callers record a placeholder.
	ErrNoGPSData = errors.New("no gps data")

	// ErrInvalidHemisphere means a GPS reference tag is not N/S (latitude)
	// or E/W (longitude). The record is present but unusable.
	ErrInvalidHemisphere = errors.New("invalid hemisphere code")

	// ErrMalformedGPS means a required GPS tag is missing or ill-typed.
	ErrMalformedGPS = errors.New("malformed gps data")

	// ErrCoordinateOutOfRange means latitude or longitude fails the range check.
	ErrCoordinateOutOfRange = errors.New("coordinate out of range")

	// ErrInvalidArgument signals programming misuse, e.g. an empty centroid input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned by repositories when a row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyProcessed means an image name has been through extraction before.
	ErrAlreadyProcessed = errors.New("image already processed")
)
