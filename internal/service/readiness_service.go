package service

import (
	"context"
	"errors"
	"regexp"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gradelink/backend/internal/model"
	"gradelink/backend/internal/repository"
)

// ── 就绪评估模块业务错误 ──

var (
	ErrNotCategoryItem = errors.New("成绩项不是类别总评项")
)

// formulaItemRef 计算公式中的成绩项引用，形如 ##gi123##
var formulaItemRef = regexp.MustCompile(`##gi(\d+)##`)

// ReadinessService 就绪评估业务接口
//
// 设计说明：
//   - 纯读：对成绩源只查询，评估本身无副作用，状态写入由 TransferService 负责
//   - 组件项集合每次评估都从成绩源重新取，类别结构或公式引用可能随时变化，不缓存
type ReadinessService interface {
	// Evaluate 判定某学生在类别总评项上的成绩是否就绪（可导出）
	// categoryItem 必须是类别总评项
	Evaluate(ctx context.Context, categoryItem *model.GradeItem, userID int64) (bool, error)
}

type readinessService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewReadinessService 创建 ReadinessService 实例
func NewReadinessService(repo *repository.Repository, logger *zap.Logger) ReadinessService {
	return &readinessService{repo: repo, logger: logger}
}

func (s *readinessService) Evaluate(ctx context.Context, categoryItem *model.GradeItem, userID int64) (bool, error) {
	if !categoryItem.IsCategoryItem() {
		return false, ErrNotCategoryItem
	}

	items, err := s.includedItems(ctx, categoryItem)
	if err != nil {
		return false, err
	}

	// 组件项为空时视为全部满足（空集即就绪）
	for i := range items {
		satisfied, err := s.itemSatisfied(ctx, &items[i], userID)
		if err != nil {
			return false, err
		}
		if !satisfied {
			return false, nil
		}
	}
	return true, nil
}

// includedItems 解析类别的组件成绩项
// 优先取类别的直接子项；子项为空时回退到从计算公式中提取 ##gi<id>## 引用
func (s *readinessService) includedItems(ctx context.Context, categoryItem *model.GradeItem) ([]model.GradeItem, error) {
	items, err := s.repo.GradeSource.ListCategoryChildren(ctx, categoryItem.ItemInstance)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		return items, nil
	}

	refs := formulaItemRef.FindAllStringSubmatch(categoryItem.Calculation, -1)
	for _, ref := range refs {
		id, err := strconv.ParseInt(ref[1], 10, 64)
		if err != nil {
			continue
		}
		item, err := s.repo.GradeSource.GetGradeItem(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// 公式引用了已删除的成绩项，跳过
				s.logger.Warn("公式引用的成绩项不存在",
					zap.Int64("category_item_id", categoryItem.ID),
					zap.Int64("ref_item_id", id),
				)
				continue
			}
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

// itemSatisfied 判定单个组件项是否满足
// 满足 ⇔ finalgrade >= gradepass，或作业类项已用尽全部允许的提交次数
func (s *readinessService) itemSatisfied(ctx context.Context, item *model.GradeItem, userID int64) (bool, error) {
	grade, err := s.repo.GradeSource.GetUserGrade(ctx, item.ID, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	if grade != nil && grade.FinalGrade != nil && *grade.FinalGrade >= item.GradePass {
		return true, nil
	}

	return s.attemptsExhausted(ctx, item, userID)
}

// attemptsExhausted 作业模块的兜底：提交次数用尽即视为满足
func (s *readinessService) attemptsExhausted(ctx context.Context, item *model.GradeItem, userID int64) (bool, error) {
	if item.ItemModule != "assign" {
		return false, nil
	}

	assignment, err := s.repo.GradeSource.GetAssignment(ctx, item.ItemInstance)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if assignment.MaxAttempts <= 0 {
		// -1 表示不限次数，永远用不尽
		return false, nil
	}

	used, err := s.repo.GradeSource.CountAttemptsUsed(ctx, assignment.ID, userID)
	if err != nil {
		return false, err
	}
	return used >= assignment.MaxAttempts, nil
}
