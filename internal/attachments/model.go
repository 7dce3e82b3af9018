package attachments

import "time"

type Attachment struct {
	ID               int64     `json:"id"`
	TaskID           int64     `json:"taskId"`
	OriginalFileName string    `json:"originalFileName"`
	StoredName       string    `json:"-"`
	FileSize         int64     `json:"fileSize"`
	UploadDate       time.Time `json:"uploadDate"`
	UploaderUserID   int64     `json:"uploaderUserId"`
}
