package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	TransferRecord TransferRecordRepository
	GradeSource    GradeSourceRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		TransferRecord: NewTransferRecordRepo(db),
		GradeSource:    NewGradeSourceRepo(db),
	}
}
