package mail

import (
	"bytes"
	"fmt"
	"html/template"
)

const layout = `<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; color: #1f2937;">
<h2>{{.Heading}}</h2>
{{.Body}}
<p style="color: #6b7280; font-size: 12px;">WillTank</p>
</body></html>`

var (
	layoutTpl = template.Must(template.New("layout").Parse(layout))

	bodies = map[string]*template.Template{
		"verification": template.Must(template.New("verification").Parse(
			`<p>Hi {{.Name}},</p><p>Your verification code is <strong>{{.Code}}</strong>. It expires in {{.Minutes}} minutes.</p>`)),
		"login_code": template.Must(template.New("login_code").Parse(
			`<p>Hi {{.Name}},</p><p>Your sign-in code is <strong>{{.Code}}</strong>. It expires in {{.Minutes}} minutes.</p>`)),
		"password_reset": template.Must(template.New("password_reset").Parse(
			`<p>Hi {{.Name}},</p><p>Use this token to reset your password: <strong>{{.Token}}</strong></p><p>It expires in {{.Minutes}} minutes. If you did not ask for a reset you can ignore this email.</p>`)),
		"enterprise_inquiry": template.Must(template.New("enterprise_inquiry").Parse(
			`<p>New enterprise inquiry from <strong>{{.Name}}</strong> ({{.Email}})</p><p>Company: {{.Company}}<br>Phone: {{.Phone}}</p><p>{{.Message}}</p>`)),
	}

	headings = map[string]string{
		"verification":       "Verify your email",
		"login_code":         "Your sign-in code",
		"password_reset":     "Reset your password",
		"enterprise_inquiry": "Enterprise inquiry",
	}
)

// Render builds the HTML body for a named template.
func Render(name string, data interface{}) (string, error) {
	tpl, ok := bodies[name]
	if !ok {
		return "", fmt.Errorf("unknown mail template %q", name)
	}

	var body bytes.Buffer
	if err := tpl.Execute(&body, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}

	var out bytes.Buffer
	err := layoutTpl.Execute(&out, struct {
		Heading string
		Body    template.HTML
	}{headings[name], template.HTML(body.String())})
	if err != nil {
		return "", fmt.Errorf("render layout: %w", err)
	}
	return out.String(), nil
}
