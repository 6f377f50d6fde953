package emailsvc

import (
	"fmt"
	"net/http"
	"net/mail"
	"time"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/Benouakrim/Academora-02-sub002/core"
)

const (
	sendgridWorkers   = 4
	sendgridQueueSize = 256
	sendgridAttempts  = 3
	sendgridBackoff   = time.Second
)

type sendgridService struct {
	client     *sendgrid.Client
	from       *sgmail.Email
	subjPrefix string
	queue      chan *core.EmailMessage
	logger     core.Logger
}

var _ core.EmailService = (*sendgridService)(nil)

// NewSendgridService delivers messages through the SendGrid v3 API from a small pool of workers.
func NewSendgridService(conf *core.Config, logger core.Logger) core.EmailService {
	from := conf.DefaultFromEmail()
	svc := &sendgridService{
		client:     sendgrid.NewSendClient(conf.SendgridApiKey),
		from:       sgmail.NewEmail(from.Name, from.Address),
		subjPrefix: "[" + conf.AppName + "] ",
		queue:      make(chan *core.EmailMessage, sendgridQueueSize),
		logger:     logger,
	}
	for i := 0; i < sendgridWorkers; i++ {
		go svc.work()
	}
	return svc
}

// SendMessages queues messages for delivery; it never blocks the caller.
func (svc *sendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		select {
		case svc.queue <- msg:
		default:
			svc.logger.Error(fmt.Sprintf("email queue full, dropping %q to %s", msg.TemplateName, joinAddresses(msg.To)))
		}
	}
}

func (svc *sendgridService) work() {
	for msg := range svc.queue {
		if err := msg.Render(); err != nil {
			svc.logger.Error(fmt.Sprintf("rendering email %q: %v", msg.TemplateName, err), err)
			continue
		}
		if msg.HasRecipients() && (msg.HasContent() || msg.HasAttachments()) {
			svc.deliver(svc.prepare(*msg))
		}
	}
}

func (svc *sendgridService) prepare(msg core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + msg.Subject
	p.AddTos(sgEmails(msg.To)...)
	if len(msg.Cc) > 0 {
		p.AddCCs(sgEmails(msg.Cc)...)
	}
	if len(msg.Bcc) > 0 {
		p.AddBCCs(sgEmails(msg.Bcc)...)
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	if msg.TemplateName != "" {
		m.AddCategories(msg.TemplateName)
	}

	// sendgrid rejects empty content values
	m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}

	for _, at := range msg.Attachments {
		m.AddAttachment(&sgmail.Attachment{
			Content:     at.Content.String(),
			Type:        at.ContentType,
			Filename:    at.Filename,
			Disposition: "attachment",
		})
	}
	return m
}

func sgEmails(addrs []mail.Address) []*sgmail.Email {
	emails := make([]*sgmail.Email, 0, len(addrs))
	for _, addr := range addrs {
		emails = append(emails, sgmail.NewEmail(addr.Name, addr.Address))
	}
	return emails
}

// retryable reports whether SendGrid may accept the same request later.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func (svc *sendgridService) deliver(m *sgmail.SGMailV3) {
	for attempt := 1; attempt <= sendgridAttempts; attempt++ {
		res, err := svc.client.Send(m)
		switch {
		case err != nil:
			svc.logger.Error(fmt.Sprintf("sending email (attempt %d): %v", attempt, err), err)
		case retryable(res.StatusCode):
			svc.logger.Warn(fmt.Sprintf("sending email (attempt %d) - status: %d - body: %s", attempt, res.StatusCode, res.Body))
		case res.StatusCode >= http.StatusBadRequest:
			svc.logger.Error(fmt.Sprintf("sending email - status: %d - body: %s", res.StatusCode, res.Body))
			return
		default:
			return
		}
		time.Sleep(time.Duration(attempt) * sendgridBackoff)
	}
}
