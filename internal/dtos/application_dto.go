package dtos

import "github.com/strove-app/strove/internal/models"

type ApplicationRequest struct {
	Resume   string            `json:"resume"`
	FileName string            `json:"fileName"`
	FileType string            `json:"fileType"`
	Answers  map[string]string `json:"answers"`
}

type StatusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}

// PostingView is a posting as seen by one student.
type PostingView struct {
	models.Posting
	SpotsAvailable    int  `json:"spotsAvailable"`
	DaysUntilDeadline int  `json:"daysUntilDeadline"`
	Starred           bool `json:"starred"`
	Applied           bool `json:"applied"`
}

type PostingDetail struct {
	PostingView
	Similar []PostingView `json:"similar"`
}
