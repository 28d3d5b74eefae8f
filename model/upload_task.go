package model

import "time"

// TaskStatus 上传任务状态
type TaskStatus string

const (
	TaskUploading  TaskStatus = "uploading"
	TaskProcessing TaskStatus = "processing"
	TaskSuccess    TaskStatus = "success"
	TaskError      TaskStatus = "error"
)

// UploadTask 表示一次摄取任务的进度，仅存在于内存，不落库
// status 单调推进：uploading→processing→success，error 为终态
type UploadTask struct {
	ID       string     `json:"id"`
	FileName string     `json:"fileName"`
	Progress int        `json:"progress"` // 0-100
	Status   TaskStatus `json:"status"`
	Error    string     `json:"error,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Terminal 任务是否已到达终态
func (t *UploadTask) Terminal() bool {
	return t.Status == TaskSuccess || t.Status == TaskError
}
