package collector

import (
	"os"
	"path/filepath"
	"strings"

	"fansync/pkg/feishu"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

func NewDefaultConfig() *Config {
	return &Config{
		Feishu:    feishu.NewDefaultConfig(),
		OutputCSV: filepath.Join("data", "followers.csv"),
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
