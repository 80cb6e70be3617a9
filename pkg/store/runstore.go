package store

import (
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/timshannon/badgerhold/v4"
	"go.uber.org/zap"
)

// RunRecord 一次任务运行的落库记录
type RunRecord struct {
	ID        uint64 `badgerhold:"key"`
	Task      string `badgerholdIndex:"Task"` // 任务名
	Trigger   string // 触发来源: chat/cron/api/manual
	StartedAt time.Time
	Duration  time.Duration
	Status    string // 任务输出的 STATUS 令牌
	ExitCode  int
	Output    string // 截断后的关键输出行
}

// RunStore 任务运行历史存储，基于嵌入式 KV，进程独占目录
type RunStore struct {
	store *badgerhold.Store
}

// OpenRunStore 打开（必要时创建）指定目录下的运行历史库
func OpenRunStore(dataDir string) (*RunStore, error) {
	options := badgerhold.DefaultOptions
	options.Dir = dataDir
	options.ValueDir = dataDir
	options.Logger = nil
	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, err
	}
	return &RunStore{store: store}, nil
}

func (s *RunStore) SaveRun(rec *RunRecord) error {
	return s.store.Insert(badgerhold.NextSequence(), rec)
}

// RecentRuns 按开始时间倒序返回最近的运行记录
func (s *RunStore) RecentRuns(limit int) ([]RunRecord, error) {
	var runs []RunRecord
	q := badgerhold.Where("StartedAt").Ge(time.Time{}).SortBy("StartedAt").Reverse()
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := s.store.Find(&runs, q); err != nil {
		return nil, err
	}
	return runs, nil
}

// RunsForTask 按任务名过滤的最近运行记录
func (s *RunStore) RunsForTask(task string, limit int) ([]RunRecord, error) {
	var runs []RunRecord
	q := badgerhold.Where("Task").Eq(task).Index("Task").SortBy("StartedAt").Reverse()
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := s.store.Find(&runs, q); err != nil {
		return nil, err
	}
	return runs, nil
}

// GC 触发一次值日志垃圾回收，常驻进程在任务落库后调用
func (s *RunStore) GC() {
	if err := s.store.Badger().RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		zap.S().Warnf("运行历史存储GC失败: %v", err)
	}
}

func (s *RunStore) Close() {
	zap.S().Info("正在关闭运行历史存储...")
	if err := s.store.Close(); err != nil {
		zap.S().Errorf("关闭运行历史存储时发生错误: %v", err)
	} else {
		zap.S().Info("运行历史存储已成功关闭")
	}
}
