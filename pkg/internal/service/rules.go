package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm/clause"

	"github.com/yeisme/filesentry/pkg/configs"
	ctxPkg "github.com/yeisme/filesentry/pkg/context"
	"github.com/yeisme/filesentry/pkg/internal/model"
	"github.com/yeisme/filesentry/pkg/internal/storage/db"
	nlog "github.com/yeisme/filesentry/pkg/log"
	"github.com/yeisme/filesentry/pkg/metrics"
	rulev "github.com/yeisme/filesentry/pkg/rule"
)

// defaultRules 首次读到空规则表时播种的默认集合.
var defaultRules = []model.Rule{
	{Name: "PDF Documents", ConditionType: model.ConditionExtension, ConditionValue: ".pdf", ActionType: model.ActionTag, ActionValue: "Document", IsActive: true},
	{Name: "Images", ConditionType: model.ConditionExtension, ConditionValue: ".jpg", ActionType: model.ActionTag, ActionValue: "Image", IsActive: true},
	{Name: "Images PNG", ConditionType: model.ConditionExtension, ConditionValue: ".png", ActionType: model.ActionTag, ActionValue: "Image", IsActive: true},
	{Name: "Source Code", ConditionType: model.ConditionExtension, ConditionValue: ".go", ActionType: model.ActionTag, ActionValue: "Code", IsActive: true},
}

// RulesEngineService 自动化规则引擎.
// 活动规则进程生命周期内只加载一次（singleflight），重建时显式失效.
//
// 规则之间不保证独立：move/rename/quarantine 动作会让同一轮里后续规则
// 拿到的路径失效，后续动作的 IO 会失败并按单规则错误记录——这是继承行为.
type RulesEngineService struct {
	dbClient      *db.Client
	tags          *TagService
	actionLog     *ActionLogService
	quarantineDir string

	mu     sync.RWMutex
	cached []model.Rule
	loaded bool
	group  singleflight.Group
}

// NewRulesEngineService 从 context 获取依赖实例.
func NewRulesEngineService(c context.Context, tags *TagService, actionLog *ActionLogService) *RulesEngineService {
	dbc := ctxPkg.GetDBClient(c)
	if dbc == nil || dbc.DB == nil || tags == nil || actionLog == nil {
		nlog.Logger().Fatal().Msg("storage clients not initialized")
	}

	return &RulesEngineService{
		dbClient:      dbc,
		tags:          tags,
		actionLog:     actionLog,
		quarantineDir: configs.GetConfig().Server.GetQuarantineDir(),
	}
}

// Load 惰性加载活动规则缓存；空表时先播种默认集合.并发调用共享同一次加载.
func (s *RulesEngineService) Load(ctx context.Context) ([]model.Rule, error) {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()

		return s.cached, nil
	}
	s.mu.RUnlock()

	v, err, _ := s.group.Do("rules", func() (any, error) {
		s.mu.RLock()
		if s.loaded {
			defer s.mu.RUnlock()

			return s.cached, nil
		}
		s.mu.RUnlock()

		tx := s.dbClient.WithContext(ctx)

		var rules []model.Rule
		if err := tx.Where("is_active = ?", true).Find(&rules).Error; err != nil {
			return nil, err
		}

		if len(rules) == 0 {
			seed := make([]model.Rule, 0, len(defaultRules))

			for _, r := range defaultRules {
				if err := rulev.ValidateStruct(&r); err != nil {
					nlog.Logger().Error().Err(err).Str("rule", r.Name).Msg("invalid default rule skipped")

					continue
				}

				seed = append(seed, r)
			}

			if len(seed) > 0 {
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
					return nil, err
				}
			}

			if err := tx.Where("is_active = ?", true).Find(&rules).Error; err != nil {
				return nil, err
			}

			nlog.Logger().Info().Int("count", len(rules)).Msg("seeded default rules")
		}

		s.mu.Lock()
		s.cached = rules
		s.loaded = true
		s.mu.Unlock()

		return rules, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]model.Rule), nil
}

// Rules 返回缓存的活动规则（必要时触发加载）.
func (s *RulesEngineService) Rules(ctx context.Context) ([]model.Rule, error) {
	return s.Load(ctx)
}

// Invalidate 失效缓存，下一次 Load 重新读库.重建后调用.
func (s *RulesEngineService) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.loaded = false
	s.mu.Unlock()
}

// Apply 按声明顺序对文件评估全部缓存规则.
// 单条规则的动作失败记错并继续，不影响后续规则.
func (s *RulesEngineService) Apply(ctx context.Context, filePath string) error {
	rules, err := s.Load(ctx)
	if err != nil {
		return err
	}

	fileName := filepath.Base(filePath)
	extension := filepath.Ext(filePath)

	for _, r := range rules {
		match, err := s.matches(ctx, r, filePath, fileName, extension)
		if err != nil {
			nlog.Logger().Error().Err(err).Str("rule", r.Name).Str("path", filePath).Msg("rule condition check failed")

			continue
		}

		if !match {
			continue
		}

		if err := s.execute(ctx, r, filePath, fileName, extension); err != nil {
			nlog.Logger().Error().Err(err).Str("rule", r.Name).Str("path", filePath).Msg("failed to apply rule")
			s.actionLog.RecordError(ctx, filePath, r.ActionType,
				fmt.Sprintf("Rule '%s' failed: %v", r.Name, err))
		}
	}

	return nil
}

func (s *RulesEngineService) matches(ctx context.Context, r model.Rule, filePath, fileName, extension string) (bool, error) {
	switch strings.ToLower(r.ConditionType) {
	case model.ConditionExtension:
		return strings.EqualFold(extension, r.ConditionValue), nil
	case model.ConditionName:
		return strings.Contains(strings.ToLower(fileName), strings.ToLower(r.ConditionValue)), nil
	case model.ConditionTag:
		return s.tags.HasTag(ctx, filePath, r.ConditionValue)
	default:
		return false, nil
	}
}

func (s *RulesEngineService) execute(ctx context.Context, r model.Rule, filePath, fileName, extension string) error {
	action := strings.ToLower(r.ActionType)

	switch action {
	case model.ActionTag:
		if err := s.tags.TagFile(ctx, filePath, r.ActionValue, 1.0, model.TagOriginRule); err != nil {
			return err
		}

		s.actionLog.Record(ctx, filePath, model.ActionTag,
			fmt.Sprintf("Applied tag '%s' via rule '%s'", r.ActionValue, r.Name), r.ActionValue)

	case model.ActionMove:
		dest := filepath.Join(r.ActionValue, fileName)
		if err := moveFile(filePath, dest); err != nil {
			return err
		}

		s.actionLog.Record(ctx, filePath, model.ActionMove,
			fmt.Sprintf("Moved to %s via rule '%s'", dest, r.Name), dest)

	case model.ActionCopy:
		dest := filepath.Join(r.ActionValue, fileName)
		if err := copyFile(filePath, dest); err != nil {
			return err
		}

		s.actionLog.Record(ctx, filePath, model.ActionCopy,
			fmt.Sprintf("Copied to %s via rule '%s'", dest, r.Name), dest)

	case model.ActionRename:
		dir := filepath.Dir(filePath)
		dest := filepath.Join(dir, r.ActionValue+extension)

		// 撞名时在扩展名前追加时间戳消歧
		if _, err := os.Stat(dest); err == nil {
			dest = filepath.Join(dir, fmt.Sprintf("%s_%d%s", r.ActionValue, time.Now().UTC().UnixNano(), extension))
		}

		if err := os.Rename(filePath, dest); err != nil {
			return err
		}

		s.actionLog.Record(ctx, filePath, model.ActionRename,
			fmt.Sprintf("Renamed to %s via rule '%s'", filepath.Base(dest), r.Name), dest)

	case model.ActionQuarantine:
		dest := filepath.Join(s.quarantineDir, fileName)
		if err := moveFile(filePath, dest); err != nil {
			return err
		}

		s.actionLog.Record(ctx, filePath, model.ActionQuarantine,
			fmt.Sprintf("Quarantined to %s via rule '%s'", dest, r.Name), dest)

	default:
		return fmt.Errorf("unknown action type: %s", r.ActionType)
	}

	metrics.RuleActions.WithLabelValues(action).Inc()
	nlog.Logger().Info().Str("rule", r.Name).Str("action", action).Str("path", filePath).Msg("applied rule")

	return nil
}

// moveFile 确保目标目录存在后移动文件.
func moveFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	return os.Rename(src, dest)
}

// copyFile 确保目标目录存在后复制文件（覆盖已存在的目标）.
func copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)

	return err
}
