package ingest

import (
	"bytes"
	"fmt"

	"github.com/dhowden/tag"
)

// Tags 从音频文件内嵌元数据中解出的字段
type Tags struct {
	Title       string
	Artist      string
	Picture     []byte
	PictureMIME string
	PictureExt  string
}

// TagReader 解析音频内嵌标签
type TagReader interface {
	ReadTags(data []byte) (*Tags, error)
}

// metadataTagReader 基于 dhowden/tag 的标签解析实现
type metadataTagReader struct{}

// NewTagReader 创建标签解析器
func NewTagReader() TagReader {
	return metadataTagReader{}
}

func (metadataTagReader) ReadTags(data []byte) (*Tags, error) {
	meta, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded tags: %w", err)
	}

	tags := &Tags{
		Title:  meta.Title(),
		Artist: meta.Artist(),
	}
	if pic := meta.Picture(); pic != nil && len(pic.Data) > 0 {
		tags.Picture = pic.Data
		tags.PictureMIME = pic.MIMEType
		tags.PictureExt = pic.Ext
	}
	return tags, nil
}
