package models

import (
	"strings"

	"wealthgate/pkg/validation"
)

// MaxOwnerNameLength bounds owner names accepted for generation.
const MaxOwnerNameLength = 200

// GenerateProfileRequest is the body of POST /api/wealth-analysis/{ownerId}.
type GenerateProfileRequest struct {
	OwnerName string `json:"ownerName" validate:"required,notblank,max=200"`
}

func (r *GenerateProfileRequest) Normalize() {
	r.OwnerName = strings.Join(strings.Fields(r.OwnerName), " ")
}

func (r *GenerateProfileRequest) Validate() error {
	return validation.Validate(r)
}

// RegenerateProfileRequest is the optional body of PUT /api/wealth-analysis/{ownerId}.
type RegenerateProfileRequest struct {
	OwnerName string `json:"ownerName"`
}
