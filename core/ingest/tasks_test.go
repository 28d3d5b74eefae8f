package ingest

import (
	"testing"
	"time"

	"harmonyhub/model"
)

func TestTaskStatusIsMonotonic(t *testing.T) {
	s := NewTaskStore()
	task := s.Create("a.mp3")

	s.MarkProcessing(task.ID)
	got, _ := s.Get(task.ID)
	if got.Status != model.TaskProcessing || got.Progress != 100 {
		t.Fatalf("expected processing at 100%%, got %+v", got)
	}

	// processing 不能退回 uploading 的进度语义
	s.SetProgress(task.ID, 10)
	got, _ = s.Get(task.ID)
	if got.Progress != 100 {
		t.Fatalf("progress must not move backwards, got %d", got.Progress)
	}
}

func TestTaskErrorIsTerminal(t *testing.T) {
	s := NewTaskStore()
	task := s.Create("a.mp3")
	s.MarkError(task.ID, "network gone")

	s.MarkProcessing(task.ID)
	s.MarkSuccess(task.ID)
	got, _ := s.Get(task.ID)
	if got.Status != model.TaskError || got.Error != "network gone" {
		t.Fatalf("error state must not be overwritten, got %+v", got)
	}
}

func TestDismissOnlyTerminalTasks(t *testing.T) {
	s := NewTaskStore()
	running := s.Create("a.mp3")
	failed := s.Create("b.mp3")
	s.MarkError(failed.ID, "boom")

	if s.Dismiss(running.ID) {
		t.Fatal("an in-flight task must not be dismissable")
	}
	if !s.Dismiss(failed.ID) {
		t.Fatal("a failed task should be dismissable")
	}
	if _, ok := s.Get(failed.ID); ok {
		t.Fatal("dismissed task should be gone")
	}
}

func TestClearCompleted(t *testing.T) {
	s := NewTaskStore()
	s.afterFunc = func(d time.Duration, f func()) *time.Timer {
		return time.NewTimer(time.Hour) // 测试中不触发自动清理
	}

	a := s.Create("a.mp3")
	b := s.Create("b.mp3")
	s.Create("c.mp3")
	s.MarkSuccess(a.ID)
	s.MarkError(b.ID, "boom")

	if cleared := s.ClearCompleted(); cleared != 2 {
		t.Fatalf("expected 2 cleared, got %d", cleared)
	}
	if len(s.List()) != 1 {
		t.Fatalf("only the running task should remain, got %d", len(s.List()))
	}
}

func TestSuccessAutoCleanup(t *testing.T) {
	s := NewTaskStore()
	fired := make(chan func(), 1)
	s.afterFunc = func(d time.Duration, f func()) *time.Timer {
		fired <- f
		return time.NewTimer(time.Hour)
	}

	task := s.Create("a.mp3")
	s.MarkSuccess(task.ID)

	(<-fired)()
	if _, ok := s.Get(task.ID); ok {
		t.Fatal("successful task should be cleaned up after the retention window")
	}
}

func TestListKeepsCreationOrder(t *testing.T) {
	s := NewTaskStore()
	s.Create("a.mp3")
	s.Create("b.mp3")
	list := s.List()
	if len(list) != 2 || list[0].FileName != "a.mp3" || list[1].FileName != "b.mp3" {
		t.Fatalf("tasks should list in creation order, got %+v", list)
	}
}
