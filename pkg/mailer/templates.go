package mailer

import "fmt"

// PasswordResetBody renders the reset mail with the one-time link.
func PasswordResetBody(name, resetURL string) (subject, html string) {
	if name == "" {
		name = "there"
	}
	subject = "Reset your password"
	html = fmt.Sprintf(`<p>Hi %s,</p>
<p>We received a request to reset your password. The link below is valid for one hour:</p>
<p><a href="%s">Reset password</a></p>
<p>If you did not request this, you can ignore this email.</p>`, name, resetURL)
	return subject, html
}
