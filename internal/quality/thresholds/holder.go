package thresholds

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/ayurtrace/ayurtrace/internal/config"
	"github.com/ayurtrace/ayurtrace/internal/quality/domain"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Holder serves the active limit table. Overrides come from a
// quality.yml file and are reloaded when it changes.
type Holder struct {
	current atomic.Value // holds domain.Thresholds
}

type thresholdFile struct {
	Thresholds []domain.Threshold `mapstructure:"thresholds"`
}

// NewStatic serves a fixed table.
func NewStatic(table domain.Thresholds) *Holder {
	h := &Holder{}
	h.current.Store(table)
	return h
}

func NewHolder(cfg config.Config, log *zap.Logger) (*Holder, error) {
	log = log.Named("quality.thresholds")
	holder := NewStatic(domain.DefaultThresholds())

	path := strings.TrimSpace(cfg.QualityConfigPath)
	if path == "" {
		return holder, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Warn("quality config not found, using defaults", zap.String("path", path))
		return holder, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	table, err := decodeThresholds(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(table)

	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeThresholds(v)
		if err != nil {
			log.Warn("invalid quality config ignored", zap.String("path", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("quality thresholds reloaded", zap.String("path", e.Name))
	})
	v.WatchConfig()

	return holder, nil
}

func (h *Holder) Get() domain.Thresholds {
	return h.current.Load().(domain.Thresholds)
}

// decodeThresholds overlays the file's entries on the default table.
func decodeThresholds(v *viper.Viper) (domain.Thresholds, error) {
	var file thresholdFile
	if err := v.UnmarshalKey("quality", &file); err != nil {
		return nil, err
	}
	table := domain.DefaultThresholds()
	for _, t := range file.Thresholds {
		testType, ok := domain.ParseTestType(string(t.TestType))
		if !ok {
			return nil, fmt.Errorf("unknown test type %q", t.TestType)
		}
		switch t.Bound {
		case domain.BoundMax, domain.BoundMin, domain.BoundMinMatch:
		default:
			return nil, fmt.Errorf("%s: unknown bound %q", testType, t.Bound)
		}
		if t.Limit < 0 {
			return nil, fmt.Errorf("%s: limit must not be negative", testType)
		}
		t.TestType = testType
		table[testType] = t
	}
	return table, nil
}
