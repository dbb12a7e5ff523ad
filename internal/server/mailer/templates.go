package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

const VerificationSubject = "Verify your account"

var verificationTmpl = template.Must(template.New("verification").Parse(`
<div style="max-width: 480px; margin: 0 auto; font-family: sans-serif; color: #333;">
  <p style="font-size: 16px; line-height: 1.6;">Hello,</p>
  <p style="font-size: 16px; line-height: 1.6;">
    Your verification code is
    <strong style="font-size: 18px; color: #2a7ae2;">{{.Code}}</strong>.<br />
    This code will expire in <strong>{{.Minutes}} minutes</strong>.
  </p>
  <p style="font-size: 14px; color: #888;">
    If you didn't request this, you can safely ignore this email.
  </p>
</div>`))

// VerificationBody renders the HTML body carrying a verification code.
func VerificationBody(code string, validMinutes int) (string, error) {
	var buf bytes.Buffer
	err := verificationTmpl.Execute(&buf, struct {
		Code    string
		Minutes int
	}{code, validMinutes})
	if err != nil {
		return "", fmt.Errorf("render verification email: %w", err)
	}
	return buf.String(), nil
}
