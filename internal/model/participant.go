package model

// Participant identifies who owns an attempt. The engine never validates
// identity; it only stamps it onto results and submission records.
type Participant struct {
	ID          int    `json:"id"`
	DisplayName string `json:"display_name"`
}

// ParticipantLoginRequest is the payload for participant authentication.
type ParticipantLoginRequest struct {
	ParticipantNo string `json:"participant_no" binding:"required,min=3,max=32"`
	AccessCode    string `json:"access_code" binding:"required,min=4,max=64"`
}

// GraderLoginRequest is the payload for grader authentication.
type GraderLoginRequest struct {
	Email      string `json:"email" binding:"required,email"`
	AccessCode string `json:"access_code" binding:"required,min=4,max=64"`
}

// ParticipantAccount is a participant row as stored, including the bcrypt
// access-code hash. Never serialized to clients.
type ParticipantAccount struct {
	ID             int    `json:"id"`
	ParticipantNo  string `json:"participant_no"`
	DisplayName    string `json:"display_name"`
	AccessCodeHash string `json:"-"`
}

// GraderAccount is a grader row as stored.
type GraderAccount struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	AccessCodeHash string `json:"-"`
}
