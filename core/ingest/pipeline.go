package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"harmonyhub/core/classifier"
	"harmonyhub/logger"
	"harmonyhub/model"
	"harmonyhub/repository"
	"harmonyhub/storage"
)

var (
	// ErrNoSource 既没有文件数据也没有来源URL
	ErrNoSource = errors.New("no file or url provided")
	// ErrUnauthenticated 未登录用户不能上传
	ErrUnauthenticated = errors.New("authentication required for upload")
	// ErrFileTooLarge 超过单文件大小上限
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
)

// Source 一次摄取的输入，文件来源与URL来源二选一
type Source struct {
	FileName    string
	Data        []byte // 文件来源：完整文件内容
	URL         string // URL来源：远端音频地址
	ContentType string
}

// Pipeline 音频摄取流水线
// 同步校验通过后创建任务并立即返回，后续阶段全部异步执行：
// 传输与入库失败是致命错误，标签、封面、分类、时长探测失败只降级为兜底值
type Pipeline struct {
	store      storage.ObjectStore
	classifier classifier.GenreClassifier
	tags       TagReader
	prober     DurationProber
	songs      repository.SongRepository
	tasks      *TaskStore

	maxSize    int64
	httpClient *http.Client

	// onSongCreated 入库成功后的回调，用于刷新读模型与推送
	onSongCreated func(*model.Song)

	wg sync.WaitGroup
}

// Options 流水线的可选项
type Options struct {
	MaxSize       int64
	OnSongCreated func(*model.Song)

	// Tags 与 Prober 为空时使用默认实现
	Tags   TagReader
	Prober DurationProber
}

// NewPipeline 创建摄取流水线
func NewPipeline(store storage.ObjectStore, genres classifier.GenreClassifier, songs repository.SongRepository, tasks *TaskStore, opts Options) *Pipeline {
	maxSize := opts.MaxSize
	if maxSize <= 0 {
		maxSize = storage.MaxObjectSize
	}
	tags := opts.Tags
	if tags == nil {
		tags = NewTagReader()
	}
	prober := opts.Prober
	if prober == nil {
		prober = NewDurationProber()
	}
	return &Pipeline{
		store:         store,
		classifier:    genres,
		tags:          tags,
		prober:        prober,
		songs:         songs,
		tasks:         tasks,
		maxSize:       maxSize,
		httpClient:    &http.Client{Timeout: 120 * time.Second},
		onSongCreated: opts.OnSongCreated,
	}
}

// Tasks 访问任务存储
func (p *Pipeline) Tasks() *TaskStore { return p.tasks }

// Wait 等待所有在途任务结束，仅测试与优雅退出使用
func (p *Pipeline) Wait() { p.wg.Wait() }

// Submit 提交一次摄取
// 同步校验：登录态、来源存在、大小上限。任何一项不过立即拒绝，
// 不创建任务，也不做任何网络操作。通过后返回任务ID，其余阶段异步执行
func (p *Pipeline) Submit(src Source, userID int64) (string, error) {
	if userID <= 0 {
		return "", ErrUnauthenticated
	}
	if len(src.Data) == 0 && strings.TrimSpace(src.URL) == "" {
		return "", ErrNoSource
	}
	if int64(len(src.Data)) > p.maxSize {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, len(src.Data), p.maxSize)
	}

	fileName := src.FileName
	if fileName == "" && src.URL != "" {
		fileName = fileNameFromURL(src.URL)
	}
	if fileName == "" {
		fileName = "audio"
	}

	task := p.tasks.Create(fileName)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(task.ID, fileName, src, userID)
	}()
	return task.ID, nil
}

// run 执行异步阶段，任务之间完全独立
func (p *Pipeline) run(taskID, fileName string, src Source, userID int64) {
	ctx := context.Background()
	isFile := len(src.Data) > 0

	// 阶段一：取得字节流并传输到对象存储（致命）
	data := src.Data
	contentType := src.ContentType
	if len(data) == 0 {
		fetched, fetchedType, err := p.fetch(ctx, src.URL)
		if err != nil {
			p.fail(taskID, fmt.Errorf("failed to fetch remote audio: %w", err))
			return
		}
		data = fetched
		if contentType == "" {
			contentType = fetchedType
		}
	}
	if contentType == "" {
		contentType = guessContentType(fileName)
	}
	p.tasks.SetProgress(taskID, 30)

	fileURL, _, err := p.store.Upload(ctx, "music", fileName, data, contentType)
	if err != nil {
		p.fail(taskID, fmt.Errorf("failed to store audio object: %w", err))
		return
	}
	p.tasks.MarkProcessing(taskID)

	// 阶段二：内嵌标签，仅文件来源读取，URL来源或读取失败都降级到文件名推导
	title := CleanTitle(fileName)
	artist := UnknownArtist
	albumArt := RandomPlaceholderArt()

	if isFile {
		tags, err := p.tags.ReadTags(data)
		if err != nil {
			logger.Warn("Failed to read embedded tags, falling back to filename",
				logger.String("file", fileName),
				logger.ErrorField(err))
		} else {
			if t := strings.TrimSpace(tags.Title); t != "" {
				title = t
			}
			if a := strings.TrimSpace(tags.Artist); a != "" {
				artist = a
			}
			// 阶段三：内嵌封面上传，失败保留占位图
			if len(tags.Picture) > 0 {
				artName := coverFileName(title, tags.PictureExt)
				if artURL, _, err := p.store.Upload(ctx, "covers", artName, tags.Picture, tags.PictureMIME); err != nil {
					logger.Warn("Failed to store album art, keeping placeholder",
						logger.String("file", fileName),
						logger.ErrorField(err))
				} else {
					albumArt = artURL
				}
			}
		}
	}

	// 阶段四与阶段五并发：AI流派分类与时长探测，均可降级
	genre := UnknownGenre
	duration := 0.0

	var stageWG sync.WaitGroup
	stageWG.Add(2)
	go func() {
		defer stageWG.Done()
		if p.classifier == nil {
			return
		}
		label, err := p.classifier.ClassifyGenre(ctx, classifier.AudioDataURI(data, contentType))
		if err != nil {
			logger.Warn("Genre classification failed",
				logger.String("file", fileName),
				logger.ErrorField(err))
			return
		}
		if label != "" {
			genre = label
		}
	}()
	go func() {
		defer stageWG.Done()
		seconds, err := p.prober.ProbeDuration(data, contentType)
		if err != nil {
			logger.Warn("Duration probe failed",
				logger.String("file", fileName),
				logger.ErrorField(err))
			return
		}
		duration = seconds
	}()
	stageWG.Wait()

	// 阶段六：入库（致命）
	now := time.Now()
	song := &model.Song{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       title,
		Artist:      artist,
		Genre:       genre,
		AlbumArtURL: albumArt,
		FileURL:     fileURL,
		Duration:    duration,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.songs.CreateSong(song); err != nil {
		p.fail(taskID, fmt.Errorf("failed to persist song: %w", err))
		return
	}

	p.tasks.MarkSuccess(taskID)
	logger.Info("Ingestion completed",
		logger.String("taskId", taskID),
		logger.String("songId", song.ID),
		logger.String("title", song.Title))

	if p.onSongCreated != nil {
		p.onSongCreated(song)
	}
}

// fetch 拉取远端音频，超过大小上限视为致命错误
func (p *Pipeline) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d from source", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, p.maxSize+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > p.maxSize {
		return nil, "", ErrFileTooLarge
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (p *Pipeline) fail(taskID string, err error) {
	logger.Error("Ingestion task failed",
		logger.String("taskId", taskID),
		logger.ErrorField(err))
	p.tasks.MarkError(taskID, err.Error())
}

// fileNameFromURL 取URL路径的最后一段作为文件名
func fileNameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return path.Base(u.Path)
}

func guessContentType(fileName string) string {
	if ct := mime.TypeByExtension(path.Ext(fileName)); ct != "" {
		return ct
	}
	return "audio/mpeg"
}

func coverFileName(title, ext string) string {
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("%s_cover.%s", strings.ReplaceAll(title, " ", "_"), strings.TrimPrefix(ext, "."))
}
