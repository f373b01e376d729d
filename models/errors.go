package models

import "errors"

var (
	// ErrIdentification means the backend gave no usable product description.
	ErrIdentification = errors.New("product identification failed")
	// ErrEnrichment means one analysis branch failed.
	ErrEnrichment = errors.New("enrichment failed")
	// ErrEncoding means an image could not be read or decoded.
	ErrEncoding = errors.New("image encoding failed")
	// ErrPersistence means stored collections could not be read or written.
	ErrPersistence = errors.New("persistence failed")
	// ErrChatDelivery means the assistant call failed.
	ErrChatDelivery = errors.New("chat delivery failed")

	ErrEmptyMessage = errors.New("message is empty")
	ErrNotFound     = errors.New("record not found")
)
