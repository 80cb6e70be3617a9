package monitor

import (
	"os"
	"path/filepath"
	"strings"

	"fansync/pkg/feishu"
	"fansync/pkg/util"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// TaskConfig 受监控任务：以子进程方式运行的外部命令，
// 输出里的 STATUS 行是任务与监控器之间的机器可读边界
type TaskConfig struct {
	Name           string   `json:"name" yaml:"name"`
	Title          string   `json:"title" yaml:"title"`       // 通知消息里的任务名称
	Command        string   `json:"command" yaml:"command"`   // 执行命令行
	Keywords       []string `json:"keywords" yaml:"keywords"` // 群聊触发关键词
	TimeoutMinutes int      `json:"timeoutMinutes,omitempty" yaml:"timeoutMinutes,omitempty"`
	GitBackup      bool     `json:"gitBackup,omitempty" yaml:"gitBackup,omitempty"` // 成功后提交数据仓库
}

type ScheduleConfig struct {
	// DailyTime 每日定时触发时刻（HH:MM），留空关闭定时
	DailyTime string `json:"dailyTime,omitempty" yaml:"dailyTime,omitempty"`
	// Task 定时触发的任务名
	Task string `json:"task,omitempty" yaml:"task,omitempty"`
}

type Config struct {
	Feishu    *feishu.Config `json:"feishu" yaml:"feishu"`
	ChatID    string         `json:"chatId" yaml:"chatId"`                       // 默认通知群聊
	BotOpenID string         `json:"botOpenId,omitempty" yaml:"botOpenId,omitempty"` // 机器人 open_id，用于识别 @
	// VerificationToken 事件回调校验 token，留空跳过校验
	VerificationToken string `json:"verificationToken,omitempty" yaml:"verificationToken,omitempty"`

	Port    int    `json:"port,omitempty" yaml:"port,omitempty"`
	DataDir string `json:"dataDir,omitempty" yaml:"dataDir,omitempty"` // 运行历史存储目录
	RepoDir string `json:"repoDir,omitempty" yaml:"repoDir,omitempty"` // git 备份仓库目录

	Tasks    []TaskConfig    `json:"tasks" yaml:"tasks"`
	Schedule *ScheduleConfig `json:"schedule,omitempty" yaml:"schedule,omitempty"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Feishu:  feishu.NewDefaultConfig(),
		Port:    3000,
		DataDir: filepath.Join("etc", "data"),
		Tasks: []TaskConfig{
			{
				Name:      "redbook",
				Title:     "小红书数据同步",
				Command:   "fansync notes --config etc/notes.yaml",
				Keywords:  []string{"小红书"},
				GitBackup: true,
			},
			{
				Name:     "followers",
				Title:    "关注者数据同步",
				Command:  "fansync collect --config etc/collect.yaml",
				Keywords: []string{"粉丝", "关注者", "关注", "用户数"},
			},
		},
		Schedule: &ScheduleConfig{DailyTime: "09:00", Task: "redbook"},
	}
}

func TryLoadFromDisk(configFilePath string) (*Config, error) {
	_, err := os.Stat(configFilePath)
	if err != nil {
		return nil, err
	}
	dir, file := filepath.Split(configFilePath)
	fileType := filepath.Ext(file)
	viper.Reset()
	viper.AddConfigPath(dir)
	viper.SetConfigName(strings.TrimSuffix(file, fileType))
	viper.SetConfigType(strings.TrimPrefix(fileType, "."))
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := viper.ReadInConfig(); err != nil {
		if errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, nil
		}
		return nil, err
	}
	cfg := NewDefaultConfig()
	if err := viper.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = strings.TrimPrefix(fileType, ".")
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 验证配置信息
func (c *Config) Validate() []error {
	var errs = make([]error, 0)
	if c.Feishu == nil {
		errs = append(errs, errors.New("缺少 feishu 配置"))
	} else if feishuErrs := c.Feishu.Validate(); len(feishuErrs) > 0 {
		errs = append(errs, feishuErrs...)
	}
	if c.ChatID == "" {
		errs = append(errs, errors.New("缺少通知群聊 chatId"))
	}
	if err := util.IsValidPort(c.Port); err != nil {
		errs = append(errs, err)
	}
	if len(c.Tasks) == 0 {
		errs = append(errs, errors.New("至少需要配置一个任务"))
	}
	for _, task := range c.Tasks {
		if task.Name == "" || task.Command == "" {
			errs = append(errs, errors.Errorf("任务配置不完整: name=%q command=%q", task.Name, task.Command))
		}
	}
	return errs
}

// Task 按名称查找任务配置
func (c *Config) Task(name string) (TaskConfig, bool) {
	for _, task := range c.Tasks {
		if task.Name == name {
			return task, true
		}
	}
	return TaskConfig{}, false
}
