package model

import (
	"strings"
)

// 成绩源表模型 — 宿主 LMS 的成绩结构，本服务只读
// 这些表由宿主系统建表和维护，不纳入本服务的迁移

// GradeType 成绩项计分类型
const (
	GradeTypeNone  = 0
	GradeTypeValue = 1 // 数值/百分比
	GradeTypeScale = 2 // 量表
	GradeTypeText  = 3
)

// Course 课程表
type Course struct {
	ID         int64  `gorm:"primaryKey" json:"id"`
	CategoryID int64  `gorm:"column:category_id" json:"category_id"`
	IDNumber   string `gorm:"column:idnumber" json:"idnumber"`
	FullName   string `gorm:"column:fullname" json:"fullname"`
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// CourseCategory 课程类别表（类别名即 SMS 的课程方案编码）
type CourseCategory struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"column:name" json:"name"`
}

// TableName 指定表名
func (CourseCategory) TableName() string { return "course_categories" }

// GradeCategory 成绩类别表（聚合成绩项的容器，如课程总评）
type GradeCategory struct {
	ID       int64 `gorm:"primaryKey" json:"id"`
	CourseID int64 `gorm:"column:course_id" json:"course_id"`
	ParentID int64 `gorm:"column:parent_id" json:"parent_id"`
}

// TableName 指定表名
func (GradeCategory) TableName() string { return "grade_categories" }

// GradeItem 成绩项表
// ItemType 为 "category" 时该项是类别总评项，ItemInstance 指向 grade_categories.id
// Calculation 为计算公式文本，其中以 ##gi<id>## 形式引用其他成绩项
type GradeItem struct {
	ID           int64    `gorm:"primaryKey" json:"id"`
	CourseID     int64    `gorm:"column:course_id" json:"course_id"`
	CategoryID   *int64   `gorm:"column:category_id" json:"category_id,omitempty"`
	ItemType     string   `gorm:"column:item_type" json:"item_type"`
	ItemModule   string   `gorm:"column:item_module" json:"item_module"`
	ItemInstance int64    `gorm:"column:item_instance" json:"item_instance"`
	IDNumber     string   `gorm:"column:idnumber" json:"idnumber"`
	Calculation  string   `gorm:"column:calculation" json:"calculation"`
	GradeType    int      `gorm:"column:grade_type" json:"grade_type"`
	GradeMax     float64  `gorm:"column:grade_max" json:"grade_max"`
	GradePass    float64  `gorm:"column:grade_pass" json:"grade_pass"`
	ScaleID      *int64   `gorm:"column:scale_id" json:"scale_id,omitempty"`
}

// TableName 指定表名
func (GradeItem) TableName() string { return "grade_items" }

// IsCategoryItem 报告该成绩项是否为类别总评项
func (i *GradeItem) IsCategoryItem() bool { return i.ItemType == "category" }

// GradeGrade 学生成绩表
type GradeGrade struct {
	ID           int64    `gorm:"primaryKey" json:"id"`
	ItemID       int64    `gorm:"column:item_id" json:"item_id"`
	UserID       int64    `gorm:"column:user_id" json:"user_id"`
	FinalGrade   *float64 `gorm:"column:final_grade" json:"final_grade,omitempty"`
	TimeModified int64    `gorm:"column:time_modified" json:"time_modified"`
}

// TableName 指定表名
func (GradeGrade) TableName() string { return "grade_grades" }

// Scale 量表表，Scale 字段为逗号分隔的档位文本
type Scale struct {
	ID    int64  `gorm:"primaryKey" json:"id"`
	Scale string `gorm:"column:scale" json:"scale"`
}

// TableName 指定表名
func (Scale) TableName() string { return "scales" }

// Label 按 1 起始的档位序号取量表文本，越界返回空串
func (s *Scale) Label(index int) string {
	parts := strings.Split(s.Scale, ",")
	if index < 1 || index > len(parts) {
		return ""
	}
	return strings.TrimSpace(parts[index-1])
}

// User 学生表（学号为邮箱 @ 前的本地段）
type User struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	Email     string `gorm:"column:email" json:"email"`
	FirstName string `gorm:"column:first_name" json:"first_name"`
	LastName  string `gorm:"column:last_name" json:"last_name"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// Assignment 作业活动表（attempts 用尽兜底只对 assign 模块生效）
// MaxAttempts 为 -1 表示不限次数
type Assignment struct {
	ID          int64 `gorm:"primaryKey" json:"id"`
	MaxAttempts int   `gorm:"column:max_attempts" json:"max_attempts"`
}

// TableName 指定表名
func (Assignment) TableName() string { return "assignments" }

// AssignmentSubmission 作业提交表，AttemptNumber 从 0 起
type AssignmentSubmission struct {
	ID            int64 `gorm:"primaryKey" json:"id"`
	AssignmentID  int64 `gorm:"column:assignment_id" json:"assignment_id"`
	UserID        int64 `gorm:"column:user_id" json:"user_id"`
	AttemptNumber int   `gorm:"column:attempt_number" json:"attempt_number"`
}

// TableName 指定表名
func (AssignmentSubmission) TableName() string { return "assignment_submissions" }
