package notes

import (
	"os"
	"path/filepath"
	"strings"

	"fansync/pkg/feishu"
	"fansync/pkg/record"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

func NewDefaultConfig() *Config {
	schema := record.DefaultSchema()
	return &Config{
		Feishu:               feishu.NewDefaultConfig(),
		DataCSVPath:          filepath.Join("data", "redbook_data.csv"),
		ExcelDir:             "excel",
		MaxExcelAgeHours:     24,
		ExportTimeoutMinutes: 30,
		Schema:               &schema,
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
	if c.TableID == "" {
		errs = append(errs, errors.New("缺少目标数据表 tableId"))
	}
	if c.ExcelDir == "" {
		errs = append(errs, errors.New("缺少导出文件目录 excelDir"))
	}
	if c.DataCSVPath == "" {
		errs = append(errs, errors.New("缺少本地备份路径 dataCsvPath"))
	}
	if c.Schema != nil && c.Schema.UniqueKey == "" {
		errs = append(errs, errors.New("schema.uniqueKey 不能为空"))
	}
	return errs
}

func (c *Config) schema() record.Schema {
	if c.Schema != nil {
		return *c.Schema
	}
	return record.DefaultSchema()
}
