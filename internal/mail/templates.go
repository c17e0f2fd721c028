package mail

import (
	"fmt"
	"strings"
)

func greeting(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Dear Customer,"
	}
	return fmt.Sprintf("Dear %s,", name)
}

// ExpiredNotice is the reminder sent when the customer's ID has already expired.
func ExpiredNotice(name, idExpiry string, daysExpired int) (subject, body string) {
	subject = "Action required: your identification document has expired"
	body = fmt.Sprintf(`%s

Our records show that your identification document expired on %s (%d days ago).

To keep your account active, please submit a copy of your renewed document at your earliest convenience. Until we receive it, some services on your account may be restricted.

If you have already sent us an updated document, please disregard this message.

Kind regards,
Compliance Team`, greeting(name), idExpiry, daysExpired)
	return subject, body
}

// ExpiringNotice is the reminder sent when the ID expires within the warning window.
func ExpiringNotice(name, idExpiry string, daysRemaining int) (subject, body string) {
	subject = "Reminder: your identification document expires soon"
	body = fmt.Sprintf(`%s

Our records show that your identification document will expire on %s (in %d days).

To avoid any interruption to your account, please submit a copy of your renewed document before the expiry date.

If you have already sent us an updated document, please disregard this message.

Kind regards,
Compliance Team`, greeting(name), idExpiry, daysRemaining)
	return subject, body
}
