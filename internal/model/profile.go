package model

import "strings"

// ProfilePatch is the body of a partial profile update. Nil fields are left
// untouched by the server.
type ProfilePatch struct {
	FirstName       *string `json:"first_name,omitempty"`
	LastName        *string `json:"last_name,omitempty"`
	PhoneNumber     *string `json:"phone_number,omitempty"`
	ProfilePhotoURL *string `json:"profile_photo_url,omitempty"`
	SchoolName      *string `json:"school_name,omitempty"`
}

func (p ProfilePatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.PhoneNumber == nil &&
		p.ProfilePhotoURL == nil && p.SchoolName == nil
}

// Apply returns u with the patch applied.
func (p ProfilePatch) Apply(u User) User {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.PhoneNumber != nil {
		u.PhoneNumber = *p.PhoneNumber
	}
	if p.ProfilePhotoURL != nil {
		u.ProfilePhotoURL = *p.ProfilePhotoURL
	}
	if p.SchoolName != nil {
		u.SchoolName = *p.SchoolName
	}
	return u
}

// ComputePatch includes a field only when the desired value is non-empty and
// differs from the current one. Blank values never clear a field.
func ComputePatch(current User, desired User) ProfilePatch {
	return ProfilePatch{
		FirstName:       changed(current.FirstName, desired.FirstName),
		LastName:        changed(current.LastName, desired.LastName),
		PhoneNumber:     changed(current.PhoneNumber, desired.PhoneNumber),
		ProfilePhotoURL: changed(current.ProfilePhotoURL, desired.ProfilePhotoURL),
		SchoolName:      changed(current.SchoolName, desired.SchoolName),
	}
}

func changed(current string, desired string) *string {
	desired = strings.TrimSpace(desired)
	if desired == "" || desired == current {
		return nil
	}
	return &desired
}

type PhotoUpload struct {
	URL          string `json:"url,omitempty"`
	ProfilePhoto string `json:"profile_photo,omitempty"`
}

func (p PhotoUpload) PhotoURL() string {
	if p.URL != "" {
		return p.URL
	}
	return p.ProfilePhoto
}
