package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"splitledger/ledger"
)

// Recipient is who an e-mail goes to.
type Recipient struct {
	Name  string
	Email string
}

type Mailer interface {
	Send(ctx context.Context, to Recipient, subject, html string) error
}

type Pusher interface {
	Push(ctx context.Context, token, title, body string, data map[string]string) error
}

// ============================================================
// EMAIL NOTIFICATIONS via SendGrid
// ============================================================

type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGridMailer(apiKey, fromEmail, fromName string) *SendGridMailer {
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromEmail),
	}
}

func (m *SendGridMailer) Send(ctx context.Context, to Recipient, subject, html string) error {
	msg := mail.NewSingleEmail(m.from, subject, mail.NewEmail(to.Name, to.Email), subject, html)
	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}

// ============================================================
// PUSH NOTIFICATIONS via Firebase Cloud Messaging
// ============================================================

type FCMPusher struct {
	client *messaging.Client
}

// NewFCMPusher authenticates with the service account file at credentials.
func NewFCMPusher(ctx context.Context, credentials string) (*FCMPusher, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentials))
	if err != nil {
		return nil, fmt.Errorf("init firebase: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init messaging: %w", err)
	}
	return &FCMPusher{client: client}, nil
}

func (p *FCMPusher) Push(ctx context.Context, token, title, body string, data map[string]string) error {
	_, err := p.client.Send(ctx, &messaging.Message{
		Token:        token,
		Notification: &messaging.Notification{Title: title, Body: body},
		Data:         data,
	})
	if err != nil {
		return fmt.Errorf("fcm: %w", err)
	}
	return nil
}

// ============================================================
// NOTIFICATION EVENTS
// ============================================================

// NotificationService turns ledger events into e-mails and pushes. Either
// channel may be nil, which disables it.
type NotificationService struct {
	dir      ledger.Directory
	mailer   Mailer
	pusher   Pusher
	appName  string
	currency string
	log      *zap.Logger
}

func NewNotificationService(dir ledger.Directory, mailer Mailer, pusher Pusher, appName, currency string, log *zap.Logger) *NotificationService {
	return &NotificationService{
		dir:      dir,
		mailer:   mailer,
		pusher:   pusher,
		appName:  appName,
		currency: currency,
		log:      log,
	}
}

// Notify dispatches ev to the users it concerns.
func (ns *NotificationService) Notify(ctx context.Context, ev ledger.Event) error {
	switch ev.Kind {
	case ledger.KindExpense:
		return ns.NotifyExpenseAdded(ctx, *ev.Expense)
	case ledger.KindSettlement:
		return ns.NotifySettlement(ctx, *ev.Settlement)
	}
	return fmt.Errorf("unknown event kind %q", ev.Kind)
}

// NotifyExpenseAdded tells every participant other than the payer what they owe.
func (ns *NotificationService) NotifyExpenseAdded(ctx context.Context, exp ledger.Expense) error {
	payer, err := ns.dir.User(ctx, exp.PaidBy)
	if err != nil {
		return err
	}
	group, err := ns.dir.Group(ctx, exp.GroupID)
	if err != nil {
		return err
	}

	for _, share := range exp.Shares {
		if share.UserID == exp.PaidBy {
			continue // Don't notify the payer
		}
		user, err := ns.dir.User(ctx, share.UserID)
		if err != nil {
			ns.log.Warn("skipping notification", zap.Stringer("user_id", share.UserID), zap.Error(err))
			continue
		}

		title := fmt.Sprintf("%s added an expense", payer.Name)
		body := fmt.Sprintf("You owe %s %s for %q in %s", ns.currency, share.Amount, exp.Description, group.Name)
		ns.push(ctx, user, title, body, map[string]string{
			"type":       "expense_added",
			"expense_id": exp.ID.String(),
			"group_id":   exp.GroupID.String(),
		})

		html, err := render(expenseEmail, map[string]any{
			"AppName":     ns.appName,
			"PayerName":   payer.Name,
			"UserName":    user.Name,
			"Description": exp.Description,
			"Total":       exp.Amount,
			"Owed":        share.Amount,
			"Currency":    ns.currency,
			"GroupName":   group.Name,
		})
		if err != nil {
			return err
		}
		ns.email(ctx, user, fmt.Sprintf("%s added %q in %s", payer.Name, exp.Description, group.Name), html)
	}
	return nil
}

// NotifySettlement tells the payee about the payment.
func (ns *NotificationService) NotifySettlement(ctx context.Context, s ledger.Settlement) error {
	payer, err := ns.dir.User(ctx, s.FromUserID)
	if err != nil {
		return err
	}
	payee, err := ns.dir.User(ctx, s.ToUserID)
	if err != nil {
		return err
	}

	title := fmt.Sprintf("%s paid you", payer.Name)
	body := fmt.Sprintf("%s paid you %s %s", payer.Name, ns.currency, s.Amount)
	ns.push(ctx, payee, title, body, map[string]string{
		"type":          "settlement",
		"settlement_id": s.ID.String(),
	})

	html, err := render(settlementEmail, map[string]any{
		"AppName":   ns.appName,
		"PayerName": payer.Name,
		"PayeeName": payee.Name,
		"Amount":    s.Amount,
		"Currency":  ns.currency,
		"Note":      s.Note,
	})
	if err != nil {
		return err
	}
	ns.email(ctx, payee, fmt.Sprintf("%s settled up with you", payer.Name), html)
	return nil
}

func (ns *NotificationService) push(ctx context.Context, u ledger.User, title, body string, data map[string]string) {
	if ns.pusher == nil || u.PushToken == "" {
		return
	}
	if err := ns.pusher.Push(ctx, u.PushToken, title, body, data); err != nil {
		ns.log.Warn("⚠️  push notification failed", zap.Stringer("user_id", u.ID), zap.Error(err))
		return
	}
	ns.log.Debug("✅ push notification sent", zap.Stringer("user_id", u.ID))
}

func (ns *NotificationService) email(ctx context.Context, u ledger.User, subject, html string) {
	if ns.mailer == nil {
		return
	}
	if err := ns.mailer.Send(ctx, Recipient{Name: u.Name, Email: u.Email}, subject, html); err != nil {
		ns.log.Warn("⚠️  email failed", zap.String("to", u.Email), zap.Error(err))
		return
	}
	ns.log.Debug("✅ email sent", zap.String("to", u.Email))
}

// ============================================================
// EMAIL TEMPLATES
// ============================================================

var expenseEmail = template.Must(template.New("expense").Parse(`
<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
	<div style="background: white; border-radius: 12px; padding: 32px; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
		<h2 style="color: #1DB954; margin-top: 0;">💰 New Expense Added</h2>
		<p>Hi <strong>{{.UserName}}</strong>,</p>
		<p><strong>{{.PayerName}}</strong> added a new expense in <strong>{{.GroupName}}</strong>:</p>
		<div style="background: #f8f9fa; border-radius: 8px; padding: 16px; margin: 16px 0;">
			<p style="margin: 4px 0; font-size: 18px;"><strong>{{.Description}}</strong></p>
			<p style="margin: 4px 0; color: #666;">Total: {{.Currency}} {{.Total}}</p>
			<p style="margin: 4px 0; color: #e53e3e; font-size: 18px;"><strong>Your share: {{.Currency}} {{.Owed}}</strong></p>
		</div>
		<p style="color: #999; font-size: 12px; margin-top: 24px;">— {{.AppName}}</p>
	</div>
</body>
</html>`))

var settlementEmail = template.Must(template.New("settlement").Parse(`
<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
	<div style="background: white; border-radius: 12px; padding: 32px; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
		<h2 style="color: #1DB954; margin-top: 0;">✅ Payment Recorded</h2>
		<p>Hi <strong>{{.PayeeName}}</strong>,</p>
		<p><strong>{{.PayerName}}</strong> recorded a payment of <strong>{{.Currency}} {{.Amount}}</strong> to you.</p>
		{{if .Note}}<p style="color: #666;">"{{.Note}}"</p>{{end}}
		<p>Check the app to see your updated balances.</p>
		<p style="color: #999; font-size: 12px; margin-top: 24px;">— {{.AppName}}</p>
	</div>
</body>
</html>`))

func render(t *template.Template, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}
