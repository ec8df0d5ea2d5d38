package leads

import "strings"

// MaskEmail redacts the local part of an address, keeping the first three
// characters and the domain: "sarah@example.com" -> "sar****example.com".
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "****"
	}
	prefix := email[:at]
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	return prefix + "****" + email[at+1:]
}

// MaskPhone keeps only the last four digits: "+15551234567" -> "****4567".
func MaskPhone(phone string) string {
	if phone == "" {
		return ""
	}
	if len(phone) <= 4 {
		return "****"
	}
	return "****" + phone[len(phone)-4:]
}
