package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type CollectionConfig struct {
	TopN          TopNConfig          `mapstructure:"topN"`
	Export        ExportConfig        `mapstructure:"export"`
	HeaderAliases map[string][]string `mapstructure:"headerAliases"`
}

type TopNConfig struct {
	Dashboard int `mapstructure:"dashboard"`
	Summary   int `mapstructure:"summary"`
}

type ExportConfig struct {
	DefaultPrefix string `mapstructure:"defaultPrefix"`
	Separator     string `mapstructure:"separator"`
	MaxParts      int    `mapstructure:"maxParts"`
}

// SeparatorRune returns the CSV field separator.
func (c ExportConfig) SeparatorRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Separator)
	return r
}

func DefaultCollectionConfig() CollectionConfig {
	return CollectionConfig{
		TopN: TopNConfig{
			Dashboard: 20,
			Summary:   10,
		},
		Export: ExportConfig{
			DefaultPrefix: "SMS",
			Separator:     ";",
			MaxParts:      50,
		},
	}
}

type CollectionConfigHolder struct {
	current atomic.Value // holds CollectionConfig
}

func NewCollectionConfigHolder() (*CollectionConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("collection")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/dunning/config") // Volume-mounted config
	v.AddConfigPath("/etc/dunning")            // System config
	v.AddConfigPath(".")                       // Current directory (dev mode)

	return newCollectionConfigHolder(v, true)
}

// NewStaticCollectionConfigHolder serves cfg without reading or watching any file.
func NewStaticCollectionConfigHolder(cfg CollectionConfig) *CollectionConfigHolder {
	holder := &CollectionConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func newCollectionConfigHolder(v *viper.Viper, watch bool) (*CollectionConfigHolder, error) {
	v.SetEnvPrefix("DUNNING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultCollectionConfig()
	v.SetDefault("collection.topN.dashboard", defaults.TopN.Dashboard)
	v.SetDefault("collection.topN.summary", defaults.TopN.Summary)
	v.SetDefault("collection.export.defaultPrefix", defaults.Export.DefaultPrefix)
	v.SetDefault("collection.export.separator", defaults.Export.Separator)
	v.SetDefault("collection.export.maxParts", defaults.Export.MaxParts)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	cfg, err := decodeCollectionConfig(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticCollectionConfigHolder(cfg)
	if !watch || !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeCollectionConfig(v)
		if err != nil {
			log.Printf("[collection-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[collection-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// collectionFile mirrors the file layout. Unmarshal goes through AllSettings so
// nested defaults survive a partial file.
type collectionFile struct {
	Collection CollectionConfig `mapstructure:"collection"`
}

func decodeCollectionConfig(v *viper.Viper) (CollectionConfig, error) {
	var file collectionFile
	if err := v.Unmarshal(&file); err != nil {
		return CollectionConfig{}, err
	}
	cfg := file.Collection
	if err := validateCollectionConfig(cfg); err != nil {
		return CollectionConfig{}, err
	}
	return cfg, nil
}

func (h *CollectionConfigHolder) Get() CollectionConfig {
	return h.current.Load().(CollectionConfig)
}

func validateCollectionConfig(cfg CollectionConfig) error {
	if cfg.TopN.Dashboard <= 0 || cfg.TopN.Summary <= 0 {
		return errors.New("collection.topN values must be positive")
	}
	if cfg.Export.MaxParts <= 0 {
		return errors.New("collection.export.maxParts must be positive")
	}
	if utf8.RuneCountInString(cfg.Export.Separator) != 1 {
		return errors.New("collection.export.separator must be a single character")
	}
	if strings.TrimSpace(cfg.Export.DefaultPrefix) == "" {
		return errors.New("collection.export.defaultPrefix cannot be empty")
	}
	return nil
}
