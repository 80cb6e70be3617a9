package gitback

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Backup 把数据目录的变更提交并推送到远端仓库。
// 目录无变更时直接跳过，推送失败算失败但不回滚已产生的提交。
type Backup struct {
	RepoDir string
	// Timeout 单条 git 命令超时，默认 2 分钟
	Timeout time.Duration
}

func New(repoDir string) *Backup {
	return &Backup{RepoDir: repoDir, Timeout: 2 * time.Minute}
}

func (b *Backup) git(ctx context.Context, args ...string) (string, error) {
	timeout := b.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "git", args...)
	cmd.Dir = b.RepoDir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.String(), err
}

// Run 执行一轮备份，返回提交信息或跳过说明
func (b *Backup) Run(ctx context.Context, scriptType, summary string) (string, error) {
	status, err := b.git(ctx, "status", "--porcelain")
	if err != nil {
		return "", errors.Wrapf(err, "git status 失败: %s", strings.TrimSpace(status))
	}
	if strings.TrimSpace(status) == "" {
		zap.S().Info("📁 没有文件变更，跳过Git备份")
		return "没有文件变更", nil
	}

	if out, err := b.git(ctx, "add", "."); err != nil {
		return "", errors.Wrapf(err, "git add 失败: %s", strings.TrimSpace(out))
	}

	commitMessage := "Auto backup: " + scriptType + " - " + time.Now().Format("2006-01-02 15:04:05")
	if summary != "" {
		commitMessage += " (" + summary + ")"
	}
	if out, err := b.git(ctx, "commit", "-m", commitMessage); err != nil {
		return "", errors.Wrapf(err, "git commit 失败: %s", strings.TrimSpace(out))
	}

	if out, err := b.git(ctx, "push"); err != nil {
		zap.S().Errorf("❌ Git推送失败: %s", strings.TrimSpace(out))
		return "", errors.Wrapf(err, "推送失败: %s", strings.TrimSpace(out))
	}

	zap.S().Infof("✅ Git备份成功: %s", commitMessage)
	return "备份成功: " + commitMessage, nil
}
