package service

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/yeisme/filesentry/pkg/configs"
	ctxPkg "github.com/yeisme/filesentry/pkg/context"
	"github.com/yeisme/filesentry/pkg/internal/storage/db"
	nlog "github.com/yeisme/filesentry/pkg/log"
)

// searchLimit 单次检索最多返回的结果数.
const searchLimit = 50

// FileResult 检索结果条目.
type FileResult struct {
	ID   uint   `json:"id"`
	Path string `json:"path"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// SearchService 全文检索.查询走 FTS5 索引，按相关度排序.
// 内容库持续出错时熔断，检索直接返回空结果而不是把错误抛给前端.
type SearchService struct {
	dbClient *db.Client
	breaker  *gobreaker.CircuitBreaker
}

// NewSearchService 从 context 获取依赖实例.
func NewSearchService(c context.Context) *SearchService {
	dbc := ctxPkg.GetDBClient(c)
	if dbc == nil || dbc.DB == nil {
		nlog.Logger().Fatal().Msg("storage clients not initialized")
	}

	s := &SearchService{dbClient: dbc}

	cbConfig := configs.GetConfig().Breaker
	if cbConfig.Enabled {
		s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "search",
			MaxRequests: cbConfig.MaxRequestsInHalf,
			Interval:    time.Duration(cbConfig.IntervalSeconds) * time.Second,
			Timeout:     time.Duration(cbConfig.TimeoutSeconds) * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRate := float64(counts.TotalFailures) / float64(counts.Requests)

				return counts.Requests >= cbConfig.MinRequests && failureRate >= cbConfig.FailureRate
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				nlog.Logger().Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("circuit breaker state changed")
			},
		})
	}

	return s
}

// Search 对索引做全文检索.空查询、查询失败、熔断打开都返回空切片，不返回错误.
func (s *SearchService) Search(ctx context.Context, query string) []FileResult {
	if query == "" {
		return []FileResult{}
	}

	run := func() ([]FileResult, error) {
		return s.query(ctx, query)
	}

	var (
		results []FileResult
		err     error
	)

	if s.breaker != nil {
		var v any

		v, err = s.breaker.Execute(func() (any, error) {
			return run()
		})
		if err == nil {
			results = v.([]FileResult)
		}
	} else {
		results, err = run()
	}

	if err != nil {
		nlog.Logger().Error().Err(err).Str("query", query).Msg("search failed")

		return []FileResult{}
	}

	return results
}

func (s *SearchService) query(ctx context.Context, query string) ([]FileResult, error) {
	var results []FileResult

	err := s.dbClient.WithContext(ctx).Raw(`
		SELECT f.id, f.path, f.name, f.size
		FROM files f
		JOIN files_fts fts ON f.id = fts.rowid
		WHERE files_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, query, searchLimit).Scan(&results).Error
	if err != nil {
		return nil, err
	}

	if results == nil {
		results = []FileResult{}
	}

	return results, nil
}
