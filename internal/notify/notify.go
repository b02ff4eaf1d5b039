package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

const (
	EmailQueue                 = "email_queue"
	OptimizationReportMailType = "optimization_report"
)

// Publisher 是 *amqp.Channel 中发布消息的部分
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// MailNotifier 把排课报告邮件投递到邮件队列中，由 cmd/mail 负责真正发送
type MailNotifier struct {
	config  *config.Config
	channel Publisher
}

func NewMailNotifier(cfg *config.Config, ch Publisher) *MailNotifier {
	return &MailNotifier{
		config:  cfg,
		channel: ch,
	}
}

func NewOptimizationReportMail(to string, result *domain.OptimizationResult) domain.MailMessage {
	return domain.MailMessage{
		Type: OptimizationReportMailType,
		To:   to,
		Data: domain.OptimizationReportMailData{
			RunID:                result.RunID,
			Strategy:             result.Strategy,
			InsertedCount:        result.InsertedCount,
			TeacherConflicts:     result.Metrics.TeacherConflicts,
			SectionConflicts:     result.Metrics.SectionConflicts,
			LoadVariance:         result.Metrics.LoadVariance,
			Suitability:          result.Metrics.Suitability,
			ExecutionTimeSeconds: result.ExecutionTimeSeconds,
		},
	}
}

func (n *MailNotifier) NotifyOptimizationReport(ctx context.Context, result *domain.OptimizationResult) error {
	recipient := n.config.Email.ReportRecipient
	if recipient == "" {
		slog.Debug("没有配置排课报告的收件人，跳过发送")
		return nil
	}

	// 序列化邮件
	mailData, err := json.Marshal(NewOptimizationReportMail(recipient, result))
	if err != nil {
		return err
	}

	// 发送邮件到消息队列中
	ctx, cancel := context.WithTimeout(ctx, time.Duration(n.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return n.channel.PublishWithContext(
		ctx,
		"",
		EmailQueue,
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        mailData,
		},
	)
}
