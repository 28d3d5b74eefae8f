package repository

import "errors"

var (
	// ErrNotFound 目标记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrPermissionDenied 写操作被属主校验拒绝
	// 调用方通过 errors.Is 识别后走独立的权限错误通道，而不是当作普通失败
	ErrPermissionDenied = errors.New("permission denied")
)
