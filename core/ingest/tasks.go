package ingest

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"harmonyhub/model"
)

// successRetention 成功任务在列表中保留的时长，到期后自动清理
const successRetention = 30 * time.Second

// TaskStore 上传任务的内存存储
// 任务之间完全独立，单个任务失败不影响其他任务
type TaskStore struct {
	mu    sync.Mutex
	tasks map[string]*model.UploadTask
	order []string // 创建顺序

	// afterFunc 便于测试替换定时器
	afterFunc func(d time.Duration, f func()) *time.Timer
}

// NewTaskStore 创建任务存储
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks:     make(map[string]*model.UploadTask),
		afterFunc: time.AfterFunc,
	}
}

// Create 创建一个上传中的新任务
func (s *TaskStore) Create(fileName string) *model.UploadTask {
	task := &model.UploadTask{
		ID:        uuid.New().String(),
		FileName:  fileName,
		Progress:  0,
		Status:    model.TaskUploading,
		CreatedAt: time.Now(),
	}
	s.mu.Lock()
	s.tasks[task.ID] = task
	s.order = append(s.order, task.ID)
	s.mu.Unlock()
	return snapshot(task)
}

// Get 按 ID 查询任务快照
func (s *TaskStore) Get(id string) (*model.UploadTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, false
	}
	return snapshot(task), true
}

// List 按创建顺序返回全部任务快照
func (s *TaskStore) List() []*model.UploadTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.UploadTask, 0, len(s.order))
	for _, id := range s.order {
		if task, ok := s.tasks[id]; ok {
			out = append(out, snapshot(task))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// SetProgress 更新上传进度，终态任务不再变化
func (s *TaskStore) SetProgress(id string, progress int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok || task.Terminal() {
		return
	}
	if progress > task.Progress {
		task.Progress = progress
	}
}

// MarkProcessing 上传完成，进入处理阶段
// 状态只能单调前进：uploading -> processing -> success
func (s *TaskStore) MarkProcessing(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok || task.Terminal() || task.Status != model.TaskUploading {
		return
	}
	task.Progress = 100
	task.Status = model.TaskProcessing
}

// MarkSuccess 任务成功，保留一段时间后自动从列表清除
func (s *TaskStore) MarkSuccess(id string) {
	s.mu.Lock()
	task, ok := s.tasks[id]
	if !ok || task.Terminal() {
		s.mu.Unlock()
		return
	}
	task.Progress = 100
	task.Status = model.TaskSuccess
	task.Error = ""
	s.mu.Unlock()

	s.afterFunc(successRetention, func() {
		s.remove(id)
	})
}

// MarkError 任务失败，error 是终态，不会被后续阶段覆盖
func (s *TaskStore) MarkError(id string, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok || task.Terminal() {
		return
	}
	task.Status = model.TaskError
	task.Error = message
}

// Dismiss 手工移除单个任务，仅允许移除终态任务
func (s *TaskStore) Dismiss(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok || !task.Terminal() {
		return false
	}
	s.removeLocked(id)
	return true
}

// ClearCompleted 批量移除全部终态任务
func (s *TaskStore) ClearCompleted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cleared := 0
	for id, task := range s.tasks {
		if task.Terminal() {
			s.removeLocked(id)
			cleared++
		}
	}
	return cleared
}

func (s *TaskStore) remove(id string) {
	s.mu.Lock()
	s.removeLocked(id)
	s.mu.Unlock()
}

func (s *TaskStore) removeLocked(id string) {
	delete(s.tasks, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func snapshot(task *model.UploadTask) *model.UploadTask {
	copied := *task
	return &copied
}
