package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/constants"
	"resume-parser-go/internal/storage/models"
	"resume-parser-go/internal/tracing"
	"resume-parser-go/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ErrCandidateNotFound 指定提交记录没有解析结果
var ErrCandidateNotFound = errors.New("parsed candidate not found")

// MySQL 保存提交记录、解析结果与outbox
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig
}

// NewMySQL 连接MySQL、注册追踪插件并迁移表结构
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		PrepareStmt:                              true,
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute)

	if err := db.Use(NewGormTracingPlugin(cfg.Database)); err != nil {
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	m := &MySQL{db: db, cfg: cfg}
	if err := m.autoMigrateSchema(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}
	return m, nil
}

func gormLogLevel(level int) logger.LogLevel {
	switch level {
	case 1:
		return logger.Silent
	case 2:
		return logger.Error
	case 3:
		return logger.Warn
	default:
		return logger.Info
	}
}

// autoMigrateSchema 迁移时关闭SQL日志
func (m *MySQL) autoMigrateSchema() error {
	silent := logger.New(log.Default(), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Silent,
		IgnoreRecordNotFoundError: true,
	})
	err := m.db.Session(&gorm.Session{Logger: silent}).AutoMigrate(
		&models.ResumeSubmission{},
		&models.ParsedCandidate{},
		&models.OutboxMessage{},
	)
	if err != nil {
		return fmt.Errorf("GORM自动迁移失败: %w", err)
	}
	return nil
}

// DB 返回GORM连接
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping 健康检查
func (m *MySQL) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// CreateSubmission 新建提交记录
func (m *MySQL) CreateSubmission(ctx context.Context, sub *models.ResumeSubmission) error {
	if sub.ProcessingStatus == "" {
		sub.ProcessingStatus = constants.StatusPendingParse
	}
	if err := m.db.WithContext(ctx).Create(sub).Error; err != nil {
		return fmt.Errorf("创建提交记录失败: %w", err)
	}
	return nil
}

// GetSubmission 按UUID读取提交记录
func (m *MySQL) GetSubmission(ctx context.Context, submissionUUID string) (*models.ResumeSubmission, error) {
	var sub models.ResumeSubmission
	if err := m.db.WithContext(ctx).Where("submission_uuid = ?", submissionUUID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// SaveParsedCandidate 在一个事务里写入候选人、更新提交状态并追加outbox事件
func (m *MySQL) SaveParsedCandidate(ctx context.Context, rec *models.ParsedCandidate, event *models.OutboxMessage) error {
	ctx, span := mysqlTracer.Start(ctx, "MySQL.SaveParsedCandidate", trace.WithAttributes(
		attribute.String("submission.uuid", rec.SubmissionUUID),
		attribute.Int("candidate.experience_count", rec.ExperienceCount),
		attribute.Int("candidate.education_count", rec.EducationCount),
	))
	defer span.End()
	span.SetAttributes(tracing.CandidateAttributes(rec.FirstName, rec.LastName, rec.PrimaryEmail)...)

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(rec).Error; err != nil {
			return fmt.Errorf("保存候选人失败: %w", err)
		}
		res := tx.Model(&models.ResumeSubmission{}).
			Where("submission_uuid = ?", rec.SubmissionUUID).
			Updates(map[string]interface{}{
				"processing_status": constants.StatusParsed,
				"parser_version":    rec.ParserVersion,
				"error_message":     "",
			})
		if res.Error != nil {
			return fmt.Errorf("更新提交状态失败: %w", res.Error)
		}
		if event != nil {
			if err := tx.Create(event).Error; err != nil {
				return fmt.Errorf("写入outbox失败: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// GetParsedCandidate 读取已保存的候选人
func (m *MySQL) GetParsedCandidate(ctx context.Context, submissionUUID string) (*models.ParsedCandidate, error) {
	var rec models.ParsedCandidate
	err := m.db.WithContext(ctx).Where("submission_uuid = ?", submissionUUID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCandidateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// MarkSubmissionFailed 标记解析失败并记录原因
func (m *MySQL) MarkSubmissionFailed(ctx context.Context, submissionUUID, reason string) error {
	return m.db.WithContext(ctx).Model(&models.ResumeSubmission{}).
		Where("submission_uuid = ?", submissionUUID).
		Updates(map[string]interface{}{
			"processing_status": constants.StatusParseFailed,
			"error_message":     reason,
		}).Error
}

// NewParsedCandidateRecord 从候选人构造数据库记录
func NewParsedCandidateRecord(submissionUUID string, cand *types.Candidate) (*models.ParsedCandidate, error) {
	if cand == nil {
		return nil, fmt.Errorf("candidate is nil")
	}
	payload, err := models.ToJSON(cand)
	if err != nil {
		return nil, fmt.Errorf("序列化候选人失败: %w", err)
	}
	rec := &models.ParsedCandidate{
		SubmissionUUID:  submissionUUID,
		FirstName:       deref(cand.FirstName),
		LastName:        deref(cand.LastName),
		CandidateJSON:   payload,
		ExperienceCount: len(cand.WorkExperiences),
		EducationCount:  len(cand.Educations),
		SkillCount:      len(cand.Skills),
		ParserVersion:   constants.ParserVersion,
	}
	if len(cand.Emails) > 0 {
		rec.PrimaryEmail = cand.Emails[0].Address
	}
	if len(cand.Phones) > 0 {
		rec.PrimaryPhone = cand.Phones[0].Value
	}
	return rec, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
