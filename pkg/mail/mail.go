package mail

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/savalagikadappa/infosys/config"
)

// Message 邮件内容
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender 邮件发送接口
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender 按配置选择邮件实现
func NewSender(cfg *config.MailConfig, logger *zap.Logger) Sender {
	if cfg.Provider == "sendgrid" {
		return NewSendgridSender(cfg)
	}
	return NewLogSender(cfg, logger)
}

// ── SendGrid ──

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type sendgridSender struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
}

// NewSendgridSender 创建 SendGrid 邮件发送器
func NewSendgridSender(cfg *config.MailConfig) Sender {
	return &sendgridSender{
		key:        cfg.SendgridAPIKey,
		from:       sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
		subjPrefix: "[" + cfg.FromName + "] ",
	}
}

func (s *sendgridSender) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return nil
	}

	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail("", msg.To))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}

	req := sendgrid.GetRequest(s.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("发送邮件失败: status=%d body=%s", res.StatusCode, res.Body)
	}
	return nil
}

// ── 日志输出（开发环境） ──

type logSender struct {
	from   string
	logger *zap.Logger
}

// NewLogSender 创建仅写日志的邮件发送器
func NewLogSender(cfg *config.MailConfig, logger *zap.Logger) Sender {
	return &logSender{from: cfg.FromAddress, logger: logger}
}

func (s *logSender) Send(_ context.Context, msg Message) error {
	if msg.To == "" {
		return nil
	}
	s.logger.Info("邮件（未实际发送）",
		zap.String("from", s.from),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("text", strings.TrimSpace(msg.Text)),
	)
	return nil
}
