package email

import (
	"bytes"
	"html/template"
)

var (
	magicLinkTmpl = template.Must(template.New("magic_link").Parse(
		`<p>Click the link below to sign in. It expires in {{.Minutes}} minutes.</p><p><a href="{{.URL}}">Sign in</a></p>`))
	invitationTmpl = template.Must(template.New("invitation").Parse(
		`<p>{{.Inviter}} invited you to join <strong>{{.Organization}}</strong> as {{.Role}}.</p><p><a href="{{.URL}}">Accept invitation</a></p>`))
	welcomeTmpl = template.Must(template.New("welcome").Parse(
		`<p>Welcome{{if .Name}}, {{.Name}}{{end}}!</p><p>Your account is ready.</p>`))
	exportReadyTmpl = template.Must(template.New("export_ready").Parse(
		`<p>Your audit log export with {{.Count}} entries is ready.</p><p><a href="{{.URL}}">Download</a> (link valid for {{.Hours}} hours)</p>`))
)

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func MagicLink(to, url string, minutes int) (Message, error) {
	html, err := render(magicLinkTmpl, struct {
		URL     string
		Minutes int
	}{url, minutes})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Your sign-in link", HTML: html}, nil
}

func Invitation(to, organization, inviter, role, url string) (Message, error) {
	html, err := render(invitationTmpl, struct {
		Organization, Inviter, Role, URL string
	}{organization, inviter, role, url})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "You have been invited to " + organization, HTML: html}, nil
}

func Welcome(to, name string) (Message, error) {
	html, err := render(welcomeTmpl, struct{ Name string }{name})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Welcome to Launchkit", HTML: html}, nil
}

func ExportReady(to, url string, count, hours int) (Message, error) {
	html, err := render(exportReadyTmpl, struct {
		URL          string
		Count, Hours int
	}{url, count, hours})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Your audit log export is ready", HTML: html}, nil
}
