package repository

import (
	"context"

	"gorm.io/gorm"

	"gradelink/backend/internal/model"
)

// GradeSourceRepository 宿主 LMS 成绩源只读访问接口
type GradeSourceRepository interface {
	GetGradeItem(ctx context.Context, id int64) (*model.GradeItem, error)
	GetGradeGrade(ctx context.Context, id int64) (*model.GradeGrade, error)
	// ListCategoryChildren 取类别的直接子成绩项（不含类别总评项自身）
	ListCategoryChildren(ctx context.Context, categoryID int64) ([]model.GradeItem, error)
	// GetUserGrade 取某学生在某成绩项上的成绩，无成绩返回 gorm.ErrRecordNotFound
	GetUserGrade(ctx context.Context, itemID, userID int64) (*model.GradeGrade, error)
	GetAssignment(ctx context.Context, id int64) (*model.Assignment, error)
	// CountAttemptsUsed 统计学生在该作业上已用的提交次数
	CountAttemptsUsed(ctx context.Context, assignmentID, userID int64) (int, error)
	GetScale(ctx context.Context, id int64) (*model.Scale, error)
}

type gradeSourceRepo struct {
	db *gorm.DB
}

// NewGradeSourceRepo 创建 GradeSourceRepository 实例
func NewGradeSourceRepo(db *gorm.DB) GradeSourceRepository {
	return &gradeSourceRepo{db: db}
}

func (r *gradeSourceRepo) GetGradeItem(ctx context.Context, id int64) (*model.GradeItem, error) {
	var item model.GradeItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *gradeSourceRepo) GetGradeGrade(ctx context.Context, id int64) (*model.GradeGrade, error) {
	var grade model.GradeGrade
	if err := r.db.WithContext(ctx).First(&grade, id).Error; err != nil {
		return nil, err
	}
	return &grade, nil
}

func (r *gradeSourceRepo) ListCategoryChildren(ctx context.Context, categoryID int64) ([]model.GradeItem, error) {
	var items []model.GradeItem
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND item_type <> ?", categoryID, "category").
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *gradeSourceRepo) GetUserGrade(ctx context.Context, itemID, userID int64) (*model.GradeGrade, error) {
	var grade model.GradeGrade
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND user_id = ?", itemID, userID).
		First(&grade).Error
	if err != nil {
		return nil, err
	}
	return &grade, nil
}

func (r *gradeSourceRepo) GetAssignment(ctx context.Context, id int64) (*model.Assignment, error) {
	var assignment model.Assignment
	if err := r.db.WithContext(ctx).First(&assignment, id).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *gradeSourceRepo) CountAttemptsUsed(ctx context.Context, assignmentID, userID int64) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.AssignmentSubmission{}).
		Where("assignment_id = ? AND user_id = ?", assignmentID, userID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *gradeSourceRepo) GetScale(ctx context.Context, id int64) (*model.Scale, error) {
	var scale model.Scale
	if err := r.db.WithContext(ctx).First(&scale, id).Error; err != nil {
		return nil, err
	}
	return &scale, nil
}
