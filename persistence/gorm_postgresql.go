// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wfunc/yahtzee/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
	dbLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold: time.Second,
			LogLevel:      gormlogger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: dbLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := autoMigrate(db); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Player{},
		&models.Match{},
		&models.Seat{},
		&models.Turn{},
		&models.Transaction{},
	)
}

// Atomic 在单个数据库事务内执行fn，fn返回错误则整体回滚
func (p *GormPostgreSQL) Atomic(fn func(tx Database) error) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GormPostgreSQL{db: tx})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	return err
}

// --- 玩家 ---

func (p *GormPostgreSQL) CreatePlayer(player *models.Player) error {
	return p.db.Create(player).Error
}

func (p *GormPostgreSQL) SavePlayer(player *models.Player) error {
	return p.db.Save(player).Error
}

func (p *GormPostgreSQL) PlayerByID(id uint) (*models.Player, error) {
	var player models.Player
	if err := p.db.First(&player, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &player, nil
}

func (p *GormPostgreSQL) PlayerByUsername(username string) (*models.Player, error) {
	var player models.Player
	if err := p.db.Where("username = ?", username).First(&player).Error; err != nil {
		return nil, notFound(err)
	}
	return &player, nil
}

// --- 对局 ---

func (p *GormPostgreSQL) CreateMatch(m *models.Match) error {
	return p.db.Create(m).Error
}

func (p *GormPostgreSQL) SaveMatch(m *models.Match) error {
	return p.db.Save(m).Error
}

func (p *GormPostgreSQL) MatchByCode(code string) (*models.Match, error) {
	var m models.Match
	if err := p.db.Where("code = ?", code).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (p *GormPostgreSQL) WaitingMatches() ([]*models.Match, error) {
	var matches []*models.Match
	err := p.db.Where("status = ?", models.MatchWaiting).
		Order("created_at desc").Find(&matches).Error
	return matches, err
}

func (p *GormPostgreSQL) StaleWaitingMatches(olderThan time.Time) ([]*models.Match, error) {
	var matches []*models.Match
	err := p.db.Where("status = ? AND created_at < ?", models.MatchWaiting, olderThan).
		Find(&matches).Error
	return matches, err
}

func (p *GormPostgreSQL) MatchesForPlayer(playerID uint) ([]*models.Match, error) {
	var matches []*models.Match
	err := p.db.
		Joins("JOIN seats ON seats.match_id = matches.id").
		Where("seats.player_id = ?", playerID).
		Order("matches.created_at desc").Find(&matches).Error
	return matches, err
}

func (p *GormPostgreSQL) PlayerHasActiveMatch(playerID uint) (bool, error) {
	var count int64
	err := p.db.Model(&models.Seat{}).
		Joins("JOIN matches ON matches.id = seats.match_id").
		Where("seats.player_id = ? AND matches.status IN ?",
			playerID, []models.MatchStatus{models.MatchWaiting, models.MatchInProgress}).
		Count(&count).Error
	return count > 0, err
}

// --- 席位 ---

func (p *GormPostgreSQL) CreateSeat(s *models.Seat) error {
	return p.db.Create(s).Error
}

func (p *GormPostgreSQL) SaveSeat(s *models.Seat) error {
	return p.db.Save(s).Error
}

func (p *GormPostgreSQL) SeatsForMatch(matchID uint) ([]*models.Seat, error) {
	var seats []*models.Seat
	err := p.db.Where("match_id = ?", matchID).Order("join_order asc").Find(&seats).Error
	return seats, err
}

func (p *GormPostgreSQL) SeatForPlayer(matchID, playerID uint) (*models.Seat, error) {
	var seat models.Seat
	err := p.db.Where("match_id = ? AND player_id = ?", matchID, playerID).First(&seat).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &seat, nil
}

// --- 回合 ---

func (p *GormPostgreSQL) CreateTurn(t *models.Turn) error {
	return p.db.Create(t).Error
}

func (p *GormPostgreSQL) SaveTurn(t *models.Turn) error {
	return p.db.Save(t).Error
}

func (p *GormPostgreSQL) TurnByID(id uint) (*models.Turn, error) {
	var t models.Turn
	if err := p.db.First(&t, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (p *GormPostgreSQL) OpenTurnForPlayer(matchID, playerID uint) (*models.Turn, error) {
	var t models.Turn
	err := p.db.Where("match_id = ? AND player_id = ? AND completed = false", matchID, playerID).
		First(&t).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (p *GormPostgreSQL) CompletedTurnsForMatch(matchID uint) ([]*models.Turn, error) {
	var turns []*models.Turn
	err := p.db.Where("match_id = ? AND completed = true", matchID).
		Order("round_number asc").Find(&turns).Error
	return turns, err
}

func (p *GormPostgreSQL) CompletedTurnsForPlayer(matchID, playerID uint) ([]*models.Turn, error) {
	var turns []*models.Turn
	err := p.db.Where("match_id = ? AND player_id = ? AND completed = true", matchID, playerID).
		Order("round_number asc").Find(&turns).Error
	return turns, err
}

// --- 交易 ---

func (p *GormPostgreSQL) CreateTransaction(t *models.Transaction) error {
	return p.db.Create(t).Error
}

func (p *GormPostgreSQL) TransactionsForPlayer(playerID uint) ([]*models.Transaction, error) {
	var txs []*models.Transaction
	err := p.db.Where("player_id = ?", playerID).Order("created_at asc, id asc").Find(&txs).Error
	return txs, err
}

func (p *GormPostgreSQL) TransactionsForMatch(matchID uint) ([]*models.Transaction, error) {
	var txs []*models.Transaction
	err := p.db.Where("match_id = ?", matchID).Order("created_at asc, id asc").Find(&txs).Error
	return txs, err
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
