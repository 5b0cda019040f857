// Package notify sends a distribution to the friends it concerns.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
)

// Notifier delivers a distribution email request.
type Notifier interface {
	SendDistribution(ctx context.Context, req models.EmailRequest) error
}

// BuildEmailRequest pairs comma separated friends with comma separated
// emails. Both lists must be non-empty and of equal length, and no element may
// be blank; otherwise ledger.ErrInvalidInput is returned and nothing should be
// sent.
func BuildEmailRequest(friends, emails string, l ledger.Ledger) (models.EmailRequest, error) {
	friendList := models.SplitList(friends)
	emailList := models.SplitList(emails)

	if len(friendList) == 0 || len(emailList) == 0 {
		return models.EmailRequest{}, fmt.Errorf("%w: no friends or emails specified", ledger.ErrInvalidInput)
	}
	if len(friendList) != len(emailList) {
		return models.EmailRequest{}, fmt.Errorf("%w: %d friends but %d emails", ledger.ErrInvalidInput, len(friendList), len(emailList))
	}
	for i := range friendList {
		if friendList[i] == "" {
			return models.EmailRequest{}, fmt.Errorf("%w: friend %d has no name", ledger.ErrInvalidInput, i+1)
		}
		if !strings.Contains(emailList[i], "@") {
			return models.EmailRequest{}, fmt.Errorf("%w: %q is not an email address", ledger.ErrInvalidInput, emailList[i])
		}
	}

	return models.EmailRequest{
		Friends:      friendList,
		FriendEmails: emailList,
		Distribution: l,
	}, nil
}
