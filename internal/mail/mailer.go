package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/gestaozabele/demandas/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

// Mensagem descreve um e-mail transacional a ser renderizado e enviado.
type Mensagem struct {
	Para     string
	Assunto  string
	Template string
	Dados    any
}

// Sender envia e-mails transacionais.
type Sender interface {
	Send(ctx context.Context, msg Mensagem) error
}

// SMTPSender envia via SMTP com STARTTLS ou SSL/TLS, renderizando
// templates HTML embutidos no binário.
type SMTPSender struct {
	cfg       config.SMTPConfig
	templates *template.Template
}

// NewSMTPSender cria o remetente a partir da configuração injetada.
func NewSMTPSender(cfg config.SMTPConfig) (*SMTPSender, error) {
	tpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("mail: templates: %w", err)
	}
	return &SMTPSender{cfg: cfg, templates: tpl}, nil
}

// Send renderiza o template e envia a mensagem. Respeita o deadline do
// contexto na conexão com o servidor.
func (s *SMTPSender) Send(ctx context.Context, msg Mensagem) error {
	if strings.TrimSpace(msg.Para) == "" {
		return fmt.Errorf("mail: destinatário ausente")
	}

	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, msg.Template, msg.Dados); err != nil {
		return fmt.Errorf("mail: render %s: %w", msg.Template, err)
	}

	payload := buildMIME(s.cfg.FromName, s.cfg.From, msg.Para, msg.Assunto, body.Bytes())

	var dialer net.Dialer
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Timeout = time.Until(deadline)
	}
	if dialer.Timeout <= 0 {
		dialer.Timeout = 15 * time.Second
	}

	address := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var client *smtp.Client
	var err error
	if strings.EqualFold(s.cfg.Enc, "SSL/TLS") {
		conn, dialErr := tls.DialWithDialer(&dialer, "tcp", address, &tls.Config{ServerName: s.cfg.Host})
		if dialErr != nil {
			return fmt.Errorf("mail: tls dial: %w", dialErr)
		}
		client, err = smtp.NewClient(conn, s.cfg.Host)
	} else {
		conn, dialErr := dialer.DialContext(ctx, "tcp", address)
		if dialErr != nil {
			return fmt.Errorf("mail: dial: %w", dialErr)
		}
		client, err = smtp.NewClient(conn, s.cfg.Host)
	}
	if err != nil {
		return fmt.Errorf("mail: client: %w", err)
	}
	defer client.Quit()

	if !strings.EqualFold(s.cfg.Enc, "SSL/TLS") && !strings.EqualFold(s.cfg.Enc, "NONE") {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return fmt.Errorf("mail: starttls: %w", err)
		}
	}

	if s.cfg.Username != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("mail: auth: %w", err)
		}
	}

	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("mail: MAIL FROM: %w", err)
	}
	if err := client.Rcpt(strings.TrimSpace(msg.Para)); err != nil {
		return fmt.Errorf("mail: RCPT TO: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("mail: DATA: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		_ = w.Close()
		return fmt.Errorf("mail: corpo: %w", err)
	}
	return w.Close()
}

func buildMIME(fromName, fromAddr, to, subject string, htmlBody []byte) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s <%s>\r\n", mime.QEncoding.Encode("utf-8", fromName), fromAddr)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	buf.Write(htmlBody)
	return buf.Bytes()
}

// NoopSender descarta mensagens; usado quando SMTP não está configurado
// e nos testes.
type NoopSender struct{}

func (NoopSender) Send(ctx context.Context, msg Mensagem) error {
	return nil
}
