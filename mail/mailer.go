// mail/mailer.go
package mail

import (
	"fmt"
	"net/smtp"

	"Gin_postgres_redis_inventory_app/util"

	"go.uber.org/zap"
)

// Sender 发信是 fire-and-forget，失败只记日志不影响主流程
type Sender interface {
	Send(to, subject, body string)
}

type SMTPSender struct {
	Addr string // host:port
	From string
	Auth smtp.Auth
}

func NewSMTPSender(host, port, from, username, password string) *SMTPSender {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPSender{Addr: host + ":" + port, From: from, Auth: auth}
}

func (s *SMTPSender) Send(to, subject, body string) {
	go func() {
		msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
			s.From, to, subject, body))
		if err := smtp.SendMail(s.Addr, s.Auth, s.From, []string{to}, msg); err != nil {
			util.GetLogger().Warn("send mail failed",
				zap.String("to", to), zap.Error(err))
		}
	}()
}

// LogSender 本地开发用：只打日志不真发
type LogSender struct{}

func (LogSender) Send(to, subject, body string) {
	util.GetLogger().Info("mail (not sent)",
		zap.String("to", to), zap.String("subject", subject), zap.String("body", body))
}

func SendVerificationEmail(s Sender, to, code string) {
	s.Send(to, "Verify your email",
		fmt.Sprintf("Your verification code is %s. It expires in 15 minutes.", code))
}

func SendPasswordResetEmail(s Sender, to, code string) {
	s.Send(to, "Password reset",
		fmt.Sprintf("Your password reset code is %s. It expires in 15 minutes.", code))
}
