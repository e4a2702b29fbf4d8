package utils

import (
	"time"
)

// Gestion identifier space
const (
	// GestionIDNumbersPerLetter is the count of numbers (001-999) available under each letter
	GestionIDNumbersPerLetter = 999

	// GestionIDLetters is the count of letters (A-Z) in the identifier space
	GestionIDLetters = 26

	// FirstGestionID is the first address handed out on an empty sheet
	FirstGestionID = "A001"

	// LastGestionID is the last valid address; the space is exhausted past it
	LastGestionID = "Z999"
)

// Allocation defaults
const (
	DefaultAllocationAttempts = 3
	DefaultCollisionDelay     = 150 * time.Millisecond
	DefaultUnconfirmedDelay   = 200 * time.Millisecond
	DefaultAllocationTimeout  = 15 * time.Second
)

// Gestion states as written to the Estado column
const (
	EstadoPendiente = "Pendiente"
	EstadoPorLlamar = "Por Llamar"
	EstadoResuelto  = "Resuelto"
)

// Cache keys
const (
	GestionesCacheKey = "gestiones:all"
	ArchiveLockKey    = "locks:archive"
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)
