// Package notify sends the email digests: the per-run digest of newly found
// projects and the analytics report. Both go out as the account configured
// through the environment, over SMTP with STARTTLS.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/inmind-gr/office-radar/internal/config"
	"github.com/inmind-gr/office-radar/internal/model"
	"github.com/inmind-gr/office-radar/internal/report"
)

// labels holds the digest strings for one email language.
type labels struct {
	Subject   string
	Intro     string
	Location  string
	Relevance string
	ReadMore  string
}

// digestLabels is indexed by email language; English is the fallback.
var digestLabels = map[model.Language]labels{
	model.LanguageEnglish: {
		Subject:   "Office Project Updates",
		Intro:     "Here are the latest office projects found:",
		Location:  "Location:",
		Relevance: "Relevance Score:",
		ReadMore:  "Read More",
	},
	model.LanguageGreek: {
		Subject:   "Ενημέρωση Έργων Γραφείων",
		Intro:     "Παρακάτω θα βρείτε τα τελευταία έργα γραφείων που εντοπίστηκαν:",
		Location:  "Τοποθεσία:",
		Relevance: "Βαθμός Συνάφειας:",
		ReadMore:  "Διαβάστε Περισσότερα",
	},
}

// Mailer sends digests for one configured recipient.
type Mailer struct {
	cfg  config.NotifyConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewMailer creates a Mailer from config.
func NewMailer(cfg config.NotifyConfig) *Mailer {
	return &Mailer{cfg: cfg, send: smtp.SendMail}
}

// Configured reports whether credentials are present. An unconfigured mailer
// is not an error; the run just skips notification.
func (m *Mailer) Configured() bool {
	return m.cfg.Sender != "" && m.cfg.Password != "" && m.cfg.Recipient != ""
}

// SendDigest emails the given projects, best first, as a multipart
// plain-text and HTML message in the configured language.
func (m *Mailer) SendDigest(ctx context.Context, projects []model.Project) error {
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "notify: send digest")
	}
	if !m.Configured() {
		return eris.New("notify: email credentials not configured")
	}
	if len(projects) == 0 {
		return eris.New("notify: no projects to send")
	}

	l := digestLabelsFor(model.Language(m.cfg.Language))
	subject := fmt.Sprintf("%s - %s", l.Subject, time.Now().Format("2006-01-02"))

	htmlBody, err := renderDigestHTML(projects, l, subject)
	if err != nil {
		return err
	}
	msg, err := buildMessage(m.cfg.Sender, m.cfg.Recipient, subject, digestText(projects, l), htmlBody)
	if err != nil {
		return err
	}

	if err := m.deliver(msg); err != nil {
		return eris.Wrap(err, "notify: send digest")
	}
	zap.L().Info("notify: digest sent",
		zap.String("recipient", m.cfg.Recipient),
		zap.Int("projects", len(projects)),
	)
	return nil
}

// SendAnalytics emails the analytics report as an HTML message.
func (m *Mailer) SendAnalytics(ctx context.Context, r *report.Report) error {
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "notify: send analytics")
	}
	if !m.Configured() {
		return eris.New("notify: email credentials not configured")
	}

	subject := "Office Project Tracker - Weekly Analytics Report"
	htmlBody, err := renderAnalyticsHTML(r)
	if err != nil {
		return err
	}
	msg, err := buildMessage(m.cfg.Sender, m.cfg.Recipient, subject,
		fmt.Sprintf("Analytics report generated %s. View the HTML version for details.", r.GeneratedAt),
		htmlBody,
	)
	if err != nil {
		return err
	}

	if err := m.deliver(msg); err != nil {
		return eris.Wrap(err, "notify: send analytics")
	}
	zap.L().Info("notify: analytics report sent", zap.String("recipient", m.cfg.Recipient))
	return nil
}

func (m *Mailer) deliver(msg []byte) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	auth := smtp.PlainAuth("", m.cfg.Sender, m.cfg.Password, m.cfg.SMTPHost)
	return m.send(addr, auth, m.cfg.Sender, []string{m.cfg.Recipient}, msg)
}

func digestLabelsFor(language model.Language) labels {
	if l, ok := digestLabels[language]; ok {
		return l
	}
	return digestLabels[model.LanguageEnglish]
}

// digestText renders the plain-text alternative.
func digestText(projects []model.Project, l labels) string {
	var b strings.Builder
	b.WriteString(l.Intro)
	b.WriteString("\n\n")
	for _, p := range projects {
		fmt.Fprintf(&b, "- %s in %s\n", p.CompanyName, p.Location)
		fmt.Fprintf(&b, "  %s\n", p.SourceTitle)
		fmt.Fprintf(&b, "  %s\n", p.Description)
		fmt.Fprintf(&b, "  Source: %s\n\n", p.SourceURL)
	}
	return b.String()
}

var digestTemplate = template.Must(template.New("digest").Parse(`<html>
<head>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; }
.project { margin-bottom: 20px; padding: 15px; border: 1px solid #ddd; border-radius: 5px; }
.company { font-weight: bold; color: #2c3e50; }
.location { color: #7f8c8d; }
.title { font-size: 18px; color: #16a085; margin: 5px 0; }
.description { margin: 10px 0; }
.link { color: #3498db; }
.relevance { font-size: 12px; color: #95a5a6; text-align: right; }
</style>
<meta charset="UTF-8">
</head>
<body>
<h2>{{.Header}}</h2>
<p>{{.Labels.Intro}}</p>
{{range .Projects}}<div class="project">
<div class="company">{{.CompanyName}}</div>
<div class="location">{{$.Labels.Location}} {{.Location}}</div>
<div class="title">{{.SourceTitle}}</div>
<div class="description">{{.Description}}</div>
<div><a href="{{.SourceURL}}" class="link">{{$.Labels.ReadMore}}</a></div>
<div class="relevance">{{$.Labels.Relevance}} {{.RelevanceScore}}</div>
</div>
{{end}}</body>
</html>
`))

func renderDigestHTML(projects []model.Project, l labels, header string) (string, error) {
	var b bytes.Buffer
	err := digestTemplate.Execute(&b, struct {
		Header   string
		Labels   labels
		Projects []model.Project
	}{Header: header, Labels: l, Projects: projects})
	if err != nil {
		return "", eris.Wrap(err, "notify: render digest html")
	}
	return b.String(), nil
}

var analyticsTemplate = template.Must(template.New("analytics").Parse(`<html>
<head>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; }
.container { max-width: 800px; margin: 0 auto; padding: 20px; }
.header { background-color: #2c3e50; color: white; padding: 15px; text-align: center; }
.section { margin: 20px 0; }
h2 { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 5px; }
table { width: 100%; border-collapse: collapse; }
th, td { padding: 10px; text-align: left; border-bottom: 1px solid #ddd; }
th { background-color: #f5f5f5; }
.card { background-color: #f9f9f9; border-radius: 5px; padding: 15px; margin-bottom: 20px; }
</style>
</head>
<body>
<div class="container">
<div class="header">
<h1>Office Project Tracker - Weekly Analytics</h1>
<p>Generated on {{.GeneratedAt}}</p>
</div>
<div class="section">
<h2>Summary</h2>
<div class="card">
<p><strong>Total Projects:</strong> {{.Summary.TotalProjects}}</p>
<p><strong>Unique Companies:</strong> {{.Summary.UniqueCompanies}}</p>
<p><strong>Unique Locations:</strong> {{.Summary.UniqueLocations}}</p>
<p><strong>Average Relevance Score:</strong> {{printf "%.2f" .Summary.AvgRelevance}}</p>
<p><strong>Latest Project Added:</strong> {{.Summary.LatestProject}}</p>
</div>
</div>
<div class="section">
<h2>Top Companies</h2>
<table>
<tr><th>Company</th><th>Mentions</th><th>Last Seen</th></tr>
{{range .TopCompanies}}<tr><td>{{.Name}}</td><td>{{.MentionCount}}</td><td>{{.LastSeen.Format "2006-01-02"}}</td></tr>
{{end}}</table>
</div>
<div class="section">
<h2>Top Locations</h2>
<table>
<tr><th>Location</th><th>Mentions</th><th>Last Seen</th></tr>
{{range .TopLocations}}<tr><td>{{.Name}}</td><td>{{.MentionCount}}</td><td>{{.LastSeen.Format "2006-01-02"}}</td></tr>
{{end}}</table>
</div>
<div class="section">
<h2>Project Types</h2>
<table>
<tr><th>Type</th><th>Count</th></tr>
{{range $type, $count := .ProjectTypes}}<tr><td>{{$type}}</td><td>{{$count}}</td></tr>
{{end}}</table>
</div>
</div>
</body>
</html>
`))

func renderAnalyticsHTML(r *report.Report) (string, error) {
	var b bytes.Buffer
	if err := analyticsTemplate.Execute(&b, r); err != nil {
		return "", eris.Wrap(err, "notify: render analytics html")
	}
	return b.String(), nil
}

// buildMessage assembles a multipart/alternative message with plain-text and
// HTML parts. The subject is Q-encoded so Greek subjects survive transport.
func buildMessage(from, to, subject, textBody, htmlBody string) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	headers := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"MIME-Version: 1.0",
		`Content-Type: multipart/alternative; boundary="` + mw.Boundary() + `"`,
	}
	head := strings.Join(headers, "\r\n") + "\r\n\r\n"

	for _, part := range []struct {
		contentType string
		body        string
	}{
		{"text/plain; charset=utf-8", textBody},
		{"text/html; charset=utf-8", htmlBody},
	} {
		h := textproto.MIMEHeader{}
		h.Set("Content-Type", part.contentType)
		h.Set("Content-Transfer-Encoding", "8bit")
		w, err := mw.CreatePart(h)
		if err != nil {
			return nil, eris.Wrap(err, "notify: create mime part")
		}
		if _, err := w.Write([]byte(part.body)); err != nil {
			return nil, eris.Wrap(err, "notify: write mime part")
		}
	}
	if err := mw.Close(); err != nil {
		return nil, eris.Wrap(err, "notify: close mime writer")
	}

	return append([]byte(head), buf.Bytes()...), nil
}
