package common

import (
	"github.com/google/uuid"
)

// NewListingID generates a unique listing ID with the "lst_" prefix
// Format: lst_<uuid>
func NewListingID() string {
	return "lst_" + uuid.New().String()
}

// NewResultID generates a unique analysis result ID with the "res_" prefix
func NewResultID() string {
	return "res_" + uuid.New().String()
}

// NewProfileID generates a unique search profile ID with the "prf_" prefix
func NewProfileID() string {
	return "prf_" + uuid.New().String()
}
