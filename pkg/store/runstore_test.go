package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *RunStore {
	t.Helper()
	s, err := OpenRunStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestRunStoreSaveAndQuery(t *testing.T) {
	s := openTestStore(t)

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	records := []*RunRecord{
		{Task: "redbook", Trigger: "每日定时监控(09:00)", StartedAt: base, Status: "STATUS:SUCCESS", ExitCode: 0},
		{Task: "followers", Trigger: "群聊@触发(粉丝数据获取)", StartedAt: base.Add(10 * time.Minute), Status: "STATUS:SUCCESS - 成功获取平台: B站", ExitCode: 0},
		{Task: "redbook", Trigger: "API触发", StartedAt: base.Add(20 * time.Minute), Status: "STATUS:NO_DATA", ExitCode: 4},
	}
	for _, rec := range records {
		require.NoError(t, s.SaveRun(rec))
	}

	recent, err := s.RecentRuns(0)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	// 按开始时间倒序
	require.Equal(t, "API触发", recent[0].Trigger)
	require.Equal(t, "每日定时监控(09:00)", recent[2].Trigger)

	limited, err := s.RecentRuns(2)
	require.NoError(t, err)
	require.Len(t, limited, 2)

	redbook, err := s.RunsForTask("redbook", 0)
	require.NoError(t, err)
	require.Len(t, redbook, 2)
	for _, rec := range redbook {
		require.Equal(t, "redbook", rec.Task)
	}
	require.Equal(t, "STATUS:NO_DATA", redbook[0].Status)
}

func TestRunStoreGC(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveRun(&RunRecord{Task: "redbook", StartedAt: time.Now()}))
	// 无可回收内容时也不得报错或崩溃
	s.GC()
}
