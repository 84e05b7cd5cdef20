package models

import (
	"gorm.io/datatypes"
)

// JobApplication tracks a single job application owned by exactly one user.
type JobApplication struct {
	BaseModel

	UserID string `gorm:"type:uuid;not null;index" json:"-"`
	User   *User  `json:"-"`

	JobPost        string `gorm:"size:255;not null" json:"job_post"`
	JobDescription string `gorm:"type:text" json:"job_description"`

	Applied     bool            `gorm:"default:false" json:"applied"`
	DateApplied *datatypes.Date `gorm:"index" json:"date_applied"`

	ReceivedFeedback    bool   `gorm:"default:false" json:"received_feedback"`
	FeedbackDescription string `gorm:"type:text" json:"feedback_description"`

	SecuredJob bool `gorm:"default:false" json:"secured_job"`
}
