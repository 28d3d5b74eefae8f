package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"harmonyhub/model"
	"harmonyhub/repository"
)

// fakeStore 内存对象存储
type fakeStore struct {
	mu       sync.Mutex
	uploads  []string
	failOn   string // 匹配folder时返回错误
	failFile string // 匹配fileName时返回错误
}

func (f *fakeStore) Upload(ctx context.Context, folder, fileName string, data []byte, contentType string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn == folder || (f.failFile != "" && f.failFile == fileName) {
		return "", "", errors.New("storage unavailable")
	}
	objectPath := folder + "/" + fileName
	f.uploads = append(f.uploads, objectPath)
	return "http://store/" + objectPath, objectPath, nil
}

type fakeClassifier struct {
	genre string
	err   error
}

func (f *fakeClassifier) ClassifyGenre(ctx context.Context, musicDataURI string) (string, error) {
	return f.genre, f.err
}

type fakeTags struct {
	mu    sync.Mutex
	tags  *Tags
	err   error
	calls int
}

func (f *fakeTags) ReadTags(data []byte) (*Tags, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.tags, f.err
}

type fakeProber struct {
	seconds float64
	err     error
}

func (f *fakeProber) ProbeDuration(data []byte, contentType string) (float64, error) {
	return f.seconds, f.err
}

// fakeSongRepo 只记录写入的歌曲
type fakeSongRepo struct {
	mu    sync.Mutex
	songs []*model.Song
	err   error
}

func (f *fakeSongRepo) CreateSong(song *model.Song) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.songs = append(f.songs, song)
	return nil
}

func (f *fakeSongRepo) GetSongByID(id string) (*model.Song, error) {
	return nil, repository.ErrNotFound
}
func (f *fakeSongRepo) GetAllSongs() ([]*model.Song, error)               { return f.songs, nil }
func (f *fakeSongRepo) GetSongsByUserID(id int64) ([]*model.Song, error)  { return f.songs, nil }
func (f *fakeSongRepo) UpdateSong(o int64, s *model.Song) error           { return nil }
func (f *fakeSongRepo) DeleteSong(o int64, id string) error               { return nil }

func newTestPipeline(store *fakeStore, cls *fakeClassifier, repo *fakeSongRepo, tags *fakeTags, prober *fakeProber) *Pipeline {
	return NewPipeline(store, cls, repo, NewTaskStore(), Options{
		MaxSize: 1 << 20,
		Tags:    tags,
		Prober:  prober,
	})
}

func TestSubmitRejectsSynchronously(t *testing.T) {
	p := newTestPipeline(&fakeStore{}, &fakeClassifier{}, &fakeSongRepo{}, &fakeTags{}, &fakeProber{})

	if _, err := p.Submit(Source{FileName: "a.mp3", Data: []byte("x")}, 0); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := p.Submit(Source{FileName: "a.mp3"}, 1); !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
	big := make([]byte, (1<<20)+1)
	if _, err := p.Submit(Source{FileName: "a.mp3", Data: big}, 1); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}

	// 同步拒绝的提交不产生任何任务
	if tasks := p.Tasks().List(); len(tasks) != 0 {
		t.Fatalf("rejected submissions must not create tasks, got %d", len(tasks))
	}
}

func TestPipelineHappyPathWithTags(t *testing.T) {
	store := &fakeStore{}
	repo := &fakeSongRepo{}
	p := newTestPipeline(store, &fakeClassifier{genre: "Jazz"}, repo,
		&fakeTags{tags: &Tags{Title: "Blue Train", Artist: "Coltrane", Picture: []byte("img"), PictureExt: "jpg"}},
		&fakeProber{seconds: 183.5})

	taskID, err := p.Submit(Source{FileName: "02 My Song 320Kbps.mp3", Data: []byte("audio")}, 7)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	p.Wait()

	task, _ := p.Tasks().Get(taskID)
	if task.Status != model.TaskSuccess {
		t.Fatalf("expected success, got %+v", task)
	}

	if len(repo.songs) != 1 {
		t.Fatalf("expected one song persisted, got %d", len(repo.songs))
	}
	song := repo.songs[0]
	if song.Title != "Blue Train" || song.Artist != "Coltrane" {
		t.Errorf("tags should win over filename, got %q / %q", song.Title, song.Artist)
	}
	if song.Genre != "Jazz" || song.Duration != 183.5 || song.UserID != 7 {
		t.Errorf("unexpected song fields: %+v", song)
	}
	if len(store.uploads) != 2 {
		t.Errorf("audio and cover should both be uploaded, got %v", store.uploads)
	}
}

func TestPipelineFallsBackToCleanedFilename(t *testing.T) {
	repo := &fakeSongRepo{}
	p := newTestPipeline(&fakeStore{}, &fakeClassifier{genre: "Rock"}, repo,
		&fakeTags{err: errors.New("not an mp3 frame")},
		&fakeProber{seconds: 10})

	_, err := p.Submit(Source{FileName: "02 My Song 320Kbps.mp3", Data: []byte("audio")}, 1)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	p.Wait()

	song := repo.songs[0]
	if song.Title != "My Song" {
		t.Errorf("title should be cleaned from filename, got %q", song.Title)
	}
	if song.Artist != UnknownArtist {
		t.Errorf("artist should fall back to %q, got %q", UnknownArtist, song.Artist)
	}
	if song.AlbumArtURL == "" {
		t.Error("album art should fall back to a placeholder")
	}
}

func TestPipelineURLSourceSkipsEmbeddedTags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("remote audio"))
	}))
	defer srv.Close()

	store := &fakeStore{}
	repo := &fakeSongRepo{}
	tags := &fakeTags{tags: &Tags{Title: "Tagged Title", Artist: "Tagged Artist", Picture: []byte("img")}}
	p := newTestPipeline(store, &fakeClassifier{genre: "Pop"}, repo, tags, &fakeProber{seconds: 3})

	taskID, err := p.Submit(Source{URL: srv.URL + "/remote_drift.mp3"}, 1)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	p.Wait()

	task, _ := p.Tasks().Get(taskID)
	if task.Status != model.TaskSuccess {
		t.Fatalf("expected success, got %+v", task)
	}
	if tags.calls != 0 {
		t.Errorf("embedded tags must not be read for url sources, got %d reads", tags.calls)
	}
	song := repo.songs[0]
	if song.Title != "remote drift" {
		t.Errorf("url sources should derive the title from the filename, got %q", song.Title)
	}
	if song.Artist != UnknownArtist {
		t.Errorf("url sources should fall back to %q, got %q", UnknownArtist, song.Artist)
	}
	if strings.HasPrefix(song.AlbumArtURL, "http://store/") {
		t.Errorf("url sources should keep placeholder art, got %q", song.AlbumArtURL)
	}
	if len(store.uploads) != 1 {
		t.Errorf("only the audio object should be uploaded, got %v", store.uploads)
	}
}

func TestPipelineDegradesOnClassifierAndProbeFailure(t *testing.T) {
	repo := &fakeSongRepo{}
	p := newTestPipeline(&fakeStore{}, &fakeClassifier{err: errors.New("model offline")}, repo,
		&fakeTags{tags: &Tags{Title: "T", Artist: "A"}},
		&fakeProber{err: errors.New("not mp3")})

	taskID, _ := p.Submit(Source{FileName: "t.mp3", Data: []byte("audio")}, 1)
	p.Wait()

	task, _ := p.Tasks().Get(taskID)
	if task.Status != model.TaskSuccess {
		t.Fatalf("classification and probe failures must not fail the task, got %+v", task)
	}
	song := repo.songs[0]
	if song.Genre != UnknownGenre || song.Duration != 0 {
		t.Errorf("expected degraded genre/duration, got %q / %f", song.Genre, song.Duration)
	}
}

func TestPipelineTransferFailureIsFatal(t *testing.T) {
	p := newTestPipeline(&fakeStore{failOn: "music"}, &fakeClassifier{}, &fakeSongRepo{},
		&fakeTags{}, &fakeProber{})

	taskID, _ := p.Submit(Source{FileName: "t.mp3", Data: []byte("audio")}, 1)
	p.Wait()

	task, _ := p.Tasks().Get(taskID)
	if task.Status != model.TaskError || task.Error == "" {
		t.Fatalf("transfer failure must mark the task failed, got %+v", task)
	}
}

func TestPipelineCommitFailureIsFatal(t *testing.T) {
	p := newTestPipeline(&fakeStore{}, &fakeClassifier{}, &fakeSongRepo{err: errors.New("db down")},
		&fakeTags{tags: &Tags{}}, &fakeProber{})

	taskID, _ := p.Submit(Source{FileName: "t.mp3", Data: []byte("audio")}, 1)
	p.Wait()

	task, _ := p.Tasks().Get(taskID)
	if task.Status != model.TaskError {
		t.Fatalf("persist failure must mark the task failed, got %+v", task)
	}
}

func TestPipelineTasksAreIndependent(t *testing.T) {
	store := &fakeStore{failFile: "bad.mp3"}
	repo := &fakeSongRepo{}
	p := newTestPipeline(store, &fakeClassifier{}, repo, &fakeTags{tags: &Tags{Title: "ok"}}, &fakeProber{})

	badID, _ := p.Submit(Source{FileName: "bad.mp3", Data: []byte("x")}, 1)
	goodID, _ := p.Submit(Source{FileName: "good.mp3", Data: []byte("x")}, 1)
	p.Wait()

	if task, _ := p.Tasks().Get(badID); task.Status != model.TaskError {
		t.Errorf("failing upload should mark only its own task, got %+v", task)
	}
	if task, _ := p.Tasks().Get(goodID); task.Status != model.TaskSuccess {
		t.Errorf("healthy task must not be affected by the failing one, got %+v", task)
	}
	if len(repo.songs) != 1 {
		t.Fatalf("only the healthy submission should persist a song, got %d", len(repo.songs))
	}
}

func TestCoverUploadFailureKeepsPlaceholder(t *testing.T) {
	repo := &fakeSongRepo{}
	p := newTestPipeline(&fakeStore{failOn: "covers"}, &fakeClassifier{genre: "Pop"}, repo,
		&fakeTags{tags: &Tags{Title: "T", Artist: "A", Picture: []byte("img")}},
		&fakeProber{seconds: 1})

	taskID, _ := p.Submit(Source{FileName: "t.mp3", Data: []byte("audio")}, 1)
	p.Wait()

	task, _ := p.Tasks().Get(taskID)
	if task.Status != model.TaskSuccess {
		t.Fatalf("cover failure must not fail the task, got %+v", task)
	}
	if repo.songs[0].AlbumArtURL == "" {
		t.Error("placeholder art should remain after cover upload failure")
	}
}
