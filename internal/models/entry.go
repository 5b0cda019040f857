package models

import "strings"

// Entry holds the distribution form as the user typed it.
type Entry struct {
	Amount       string
	Friends      string // comma separated
	FriendEmails string // comma separated
	Spender      string
	Description  string
}

// FriendList returns the trimmed friend names.
func (e Entry) FriendList() []string {
	return SplitList(e.Friends)
}

// EmailList returns the trimmed friend emails.
func (e Entry) EmailList() []string {
	return SplitList(e.FriendEmails)
}

// SplitList splits a comma separated list and trims each element. Blank input
// yields nil; blank elements are kept so callers can reject them.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// JoinList is the inverse of SplitList for display.
func JoinList(items []string) string {
	return strings.Join(items, ", ")
}
