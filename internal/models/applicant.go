// internal/models/applicant.go
package models

// ApplicantContact holds the contact details used for score notifications.
// Any field may be empty.
type ApplicantContact struct {
	UserID   string `json:"userId"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}
