package model

import (
	"github.com/google/uuid"
)

// Question is a single exam question. Options and CorrectOption are only
// meaningful for MULTIPLE_CHOICE exams; WRITTEN_UPLOAD questions are graded
// externally from uploaded evidence.
type Question struct {
	ID            uuid.UUID `json:"id"`
	Text          string    `json:"text"`
	Marks         float64   `json:"marks"`
	ImageURL      string    `json:"image_url,omitempty"`
	Options       []string  `json:"options,omitempty"`
	CorrectOption int       `json:"correct_option,omitempty"`
	OrderNum      int       `json:"order_num"`
}
