package config

import "time"

const (
	// Request handling
	RequestTimeout = 30 * time.Second

	// Input bounds
	MaxNotesLen       = 500
	MaxNameLen        = 120
	MaxDescriptionLen = 500
	MinPasswordLen    = 8

	// Generated coupon codes
	GeneratedCodeLen = 8

	// Default schedule capacity when none is supplied
	DefaultMaxSlots = 10
)
