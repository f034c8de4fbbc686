package service

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm/clause"

	ctxPkg "github.com/yeisme/filesentry/pkg/context"
	"github.com/yeisme/filesentry/pkg/internal/model"
	"github.com/yeisme/filesentry/pkg/internal/storage/db"
	nlog "github.com/yeisme/filesentry/pkg/log"
)

// defaultPartners 首次读到空表时播种的默认实体.
var defaultPartners = []model.Partner{
	{Name: "Acme Corp", Domains: "acme.com", Keywords: "Acme"},
	{Name: "Contoso", Domains: "contoso.com", Keywords: "Contoso"},
	{Name: "Fabrikam", Domains: "fabrikam.com", Keywords: "Fabrikam"},
}

// PartnerService 外部实体检测：关键词大小写不敏感地匹配文件名或内容.
// 实体列表进程生命周期内只加载一次（singleflight 保证并发下只有一个加载者），
// 重建时显式失效.
type PartnerService struct {
	dbClient *db.Client

	mu     sync.RWMutex
	cached []model.Partner
	loaded bool
	group  singleflight.Group
}

// NewPartnerService 从 context 获取依赖实例.
func NewPartnerService(c context.Context) *PartnerService {
	dbc := ctxPkg.GetDBClient(c)
	if dbc == nil || dbc.DB == nil {
		nlog.Logger().Fatal().Msg("storage clients not initialized")
	}

	return &PartnerService{dbClient: dbc}
}

// Load 惰性加载实体缓存；空表时先播种默认集合.并发调用共享同一次加载.
func (s *PartnerService) Load(ctx context.Context) ([]model.Partner, error) {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()

		return s.cached, nil
	}
	s.mu.RUnlock()

	v, err, _ := s.group.Do("partners", func() (any, error) {
		s.mu.RLock()
		if s.loaded {
			defer s.mu.RUnlock()

			return s.cached, nil
		}
		s.mu.RUnlock()

		tx := s.dbClient.WithContext(ctx)

		var partners []model.Partner
		if err := tx.Find(&partners).Error; err != nil {
			return nil, err
		}

		if len(partners) == 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&defaultPartners).Error; err != nil {
				return nil, err
			}

			if err := tx.Find(&partners).Error; err != nil {
				return nil, err
			}

			nlog.Logger().Info().Int("count", len(partners)).Msg("seeded default partners")
		}

		s.mu.Lock()
		s.cached = partners
		s.loaded = true
		s.mu.Unlock()

		return partners, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]model.Partner), nil
}

// Invalidate 失效缓存，下一次 Load 重新读库.重建后调用.
func (s *PartnerService) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.loaded = false
	s.mu.Unlock()
}

// Detect 对文件名和内容做关键词匹配，命中则按置信度 1.0 关联实体.
// 实体关联是静默的元数据：这里不写审计日志.
func (s *PartnerService) Detect(ctx context.Context, filePath, content string) error {
	partners, err := s.Load(ctx)
	if err != nil {
		return err
	}

	lowerContent := strings.ToLower(content)
	lowerName := strings.ToLower(filepath.Base(filePath))

	for _, partner := range partners {
		if !matchKeywords(partner.Keywords, lowerName, lowerContent) {
			continue
		}

		if err := s.associate(ctx, filePath, partner.ID); err != nil {
			return err
		}

		nlog.Logger().Info().
			Str("partner", partner.Name).
			Str("path", filePath).
			Msg("detected partner in file")
	}

	return nil
}

// matchKeywords 逗号分隔关键词，去空白、大小写不敏感，空词跳过.
func matchKeywords(keywords, lowerName, lowerContent string) bool {
	if keywords == "" {
		return false
	}

	for _, kw := range strings.Split(keywords, ",") {
		term := strings.ToLower(strings.TrimSpace(kw))
		if term == "" {
			continue
		}

		if strings.Contains(lowerContent, term) || strings.Contains(lowerName, term) {
			return true
		}
	}

	return false
}

func (s *PartnerService) associate(ctx context.Context, filePath string, partnerID uint) error {
	tx := s.dbClient.WithContext(ctx)

	var file model.File
	if err := tx.Select("id").Where("path = ?", filePath).First(&file).Error; err != nil {
		return nil
	}

	fp := model.FilePartner{FileID: file.ID, PartnerID: partnerID, Confidence: 1.0}

	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fp).Error
}
