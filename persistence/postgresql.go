// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/wfunc/yahtzee/models"
)

// StatsStore 统计/排行榜只读查询，直接走database/sql。
// 聚合查询用原生SQL比GORM表达更直接，表结构由GORM迁移维护。
type StatsStore struct {
	db *sql.DB
}

// NewStatsStore 创建统计查询连接
func NewStatsStore(host string, port int, user, password, dbname string) (*StatsStore, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &StatsStore{db: db}, nil
}

// TopByHighestScore 单局最高分排行
func (s *StatsStore) TopByHighestScore(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	return s.leaderboard(ctx, "highest_score DESC", limit)
}

// TopByNetEarnings 净收益排行
func (s *StatsStore) TopByNetEarnings(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	return s.leaderboard(ctx, "(total_earnings - total_losses) DESC", limit)
}

// TopByGamesPlayed 最活跃玩家排行
func (s *StatsStore) TopByGamesPlayed(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	return s.leaderboard(ctx, "games_played DESC", limit)
}

func (s *StatsStore) leaderboard(ctx context.Context, order string, limit int) ([]models.LeaderboardEntry, error) {
	query := fmt.Sprintf(`
        SELECT username, games_played, games_won, highest_score,
               COALESCE(total_earnings, 0) - COALESCE(total_losses, 0) AS net_earnings
        FROM players
        WHERE active = true AND deleted_at IS NULL
        ORDER BY %s
        LIMIT $1`, order)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var entry models.LeaderboardEntry
		var net string
		if err := rows.Scan(&entry.Username, &entry.GamesPlayed, &entry.GamesWon,
			&entry.HighestScore, &net); err != nil {
			return nil, err
		}
		entry.NetEarnings, err = decimal.NewFromString(net)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// SystemTotals 系统级汇总：活跃玩家数、系统总余额、已结束对局数、累计派发奖金
func (s *StatsStore) SystemTotals(ctx context.Context) (*models.SystemTotals, error) {
	var totals models.SystemTotals
	var balance, prizes string

	err := s.db.QueryRowContext(ctx, `
        SELECT
            (SELECT COUNT(*) FROM players WHERE active = true AND deleted_at IS NULL),
            (SELECT COALESCE(SUM(balance), 0) FROM players WHERE deleted_at IS NULL),
            (SELECT COUNT(*) FROM matches WHERE status = 'FINISHED'),
            (SELECT COALESCE(SUM(prize_pool), 0) FROM matches WHERE status = 'FINISHED')`,
	).Scan(&totals.ActivePlayers, &balance, &totals.FinishedMatches, &prizes)
	if err != nil {
		return nil, err
	}

	if totals.TotalBalance, err = decimal.NewFromString(balance); err != nil {
		return nil, err
	}
	if totals.PrizesDistributed, err = decimal.NewFromString(prizes); err != nil {
		return nil, err
	}
	return &totals, nil
}

// InProgressMatchCount 进行中对局数，供监控面板拉取
func (s *StatsStore) InProgressMatchCount(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `
        SELECT COUNT(*) FROM matches WHERE status = 'IN_PROGRESS'`,
	).Scan(&count)
	return count, err
}

// PrizesDistributedSince 某时间点以来派发的奖金总额
func (s *StatsStore) PrizesDistributedSince(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	var total string
	err := s.db.QueryRowContext(ctx, `
        SELECT COALESCE(SUM(amount), 0)
        FROM transactions
        WHERE type = 'WIN' AND created_at >= $1`, since,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(total)
}

// Close 关闭连接
func (s *StatsStore) Close() error {
	return s.db.Close()
}
