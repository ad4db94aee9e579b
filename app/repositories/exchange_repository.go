package repositories

import (
	"context"

	"gorm.io/gorm"

	"difypipe/app/models/exchange"
	"difypipe/pkg/database"
)

// ExchangeRepository 消息交换记录仓库
type ExchangeRepository struct {
	db *gorm.DB
}

// NewExchangeRepository 创建仓库实例
func NewExchangeRepository() *ExchangeRepository {
	return &ExchangeRepository{
		db: database.DB,
	}
}

// Create 写入一条交换记录
func (r *ExchangeRepository) Create(ctx context.Context, record *exchange.Exchange) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// GetByUser 分页获取某个调用方的交换记录
func (r *ExchangeRepository) GetByUser(ctx context.Context, user string, page, pageSize int) ([]exchange.Exchange, int64, error) {
	var records []exchange.Exchange
	var total int64

	query := r.db.WithContext(ctx).Model(&exchange.Exchange{}).Where("user_email = ?", user)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&records).Error

	return records, total, err
}
