package telegram

import (
	"context"
	"strings"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
)

// ErrNoPrivileges marks API refusals caused by missing bot rights, so callers
// can distinguish misconfiguration from transient failures.
var ErrNoPrivileges = errors.New("not enough rights")

const requestTimeout = 10 * time.Second

// Operations provides the Telegram side of moderation enforcement.
type Operations struct {
	bot *api.BotAPI
}

func NewOperations(bot *api.BotAPI) *Operations {
	return &Operations{bot: bot}
}

func (o *Operations) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := o.request(ctx, api.NewDeleteMessage(chatID, messageID)); err != nil {
		return errors.WithMessage(err, "failed to delete message")
	}
	return nil
}

// Restrict revokes send permissions until the given time. A zero until makes
// the restriction permanent.
func (o *Operations) Restrict(ctx context.Context, chatID, userID int64, until time.Time) error {
	config := api.RestrictChatMemberConfig{
		ChatMemberConfig: memberConfig(chatID, userID),
		Permissions: &api.ChatPermissions{
			CanSendMessages:       false,
			CanSendAudios:         false,
			CanSendDocuments:      false,
			CanSendPhotos:         false,
			CanSendVideos:         false,
			CanSendVideoNotes:     false,
			CanSendVoiceNotes:     false,
			CanSendPolls:          false,
			CanSendOtherMessages:  false,
			CanAddWebPagePreviews: false,
		},
	}
	if !until.IsZero() {
		config.UntilDate = until.Unix()
	}
	if err := o.request(ctx, config); err != nil {
		return errors.WithMessage(err, "failed to restrict user")
	}
	return nil
}

// Unrestrict restores default member permissions.
func (o *Operations) Unrestrict(ctx context.Context, chatID, userID int64) error {
	config := api.RestrictChatMemberConfig{
		ChatMemberConfig: memberConfig(chatID, userID),
		Permissions: &api.ChatPermissions{
			CanSendMessages:       true,
			CanSendAudios:         true,
			CanSendDocuments:      true,
			CanSendPhotos:         true,
			CanSendVideos:         true,
			CanSendVideoNotes:     true,
			CanSendVoiceNotes:     true,
			CanSendPolls:          true,
			CanSendOtherMessages:  true,
			CanAddWebPagePreviews: true,
		},
	}
	if err := o.request(ctx, config); err != nil {
		return errors.WithMessage(err, "failed to unrestrict user")
	}
	return nil
}

// Ban removes the user until the given time. A zero until bans permanently.
func (o *Operations) Ban(ctx context.Context, chatID, userID int64, until time.Time) error {
	config := api.BanChatMemberConfig{
		ChatMemberConfig: memberConfig(chatID, userID),
	}
	if !until.IsZero() {
		config.UntilDate = until.Unix()
	}
	if err := o.request(ctx, config); err != nil {
		return errors.WithMessage(err, "failed to ban user")
	}
	return nil
}

func (o *Operations) Unban(ctx context.Context, chatID, userID int64) error {
	config := api.UnbanChatMemberConfig{
		ChatMemberConfig: memberConfig(chatID, userID),
		OnlyIfBanned:     true,
	}
	if err := o.request(ctx, config); err != nil {
		return errors.WithMessage(err, "failed to unban user")
	}
	return nil
}

func (o *Operations) request(ctx context.Context, c api.Chattable) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	done := make(chan error, 1)
	go func() {
		_, err := o.bot.Request(c)
		done <- err
	}()

	timer := time.NewTimer(requestTimeout)
	defer timer.Stop()
	select {
	case err := <-done:
		return wrapPrivilegeError(err)
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errors.New("telegram request timed out")
	}
}

func wrapPrivilegeError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "not enough rights") ||
		strings.Contains(err.Error(), "CHAT_ADMIN_REQUIRED") {
		return errors.Wrap(ErrNoPrivileges, err.Error())
	}
	return err
}

func memberConfig(chatID, userID int64) api.ChatMemberConfig {
	return api.ChatMemberConfig{
		ChatConfig: api.ChatConfig{ChatID: chatID},
		UserID:     userID,
	}
}
