package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/chatwarden/internal/bot"
	"github.com/iamwavecut/chatwarden/internal/db"
	"github.com/iamwavecut/chatwarden/internal/i18n"
	"github.com/iamwavecut/chatwarden/internal/moderation"
	"github.com/iamwavecut/chatwarden/internal/policy/permissions"
)

// handleCommand serves the moderation command set. It reports whether it
// consumed the message; unrecognized commands and commands from
// non-moderators are not consumed and flow on to flood and lock
// enforcement like any other content.
func (m *Moderator) handleCommand(ctx context.Context, msg *api.Message, chat *api.Chat, user *api.User, settings *db.Settings) (bool, error) {
	command := msg.Command()
	switch command {
	case "warn", "unwarn", "mute", "unmute", "ban", "unban", "kick":
	default:
		return false, nil
	}

	if user == nil {
		return false, nil
	}
	member, err := m.s.GetBot().GetChatMember(api.GetChatMemberConfig{
		ChatConfigWithUser: api.ChatConfigWithUser{
			ChatConfig: api.ChatConfig{ChatID: chat.ID},
			UserID:     user.ID,
		},
	})
	if err != nil {
		// Cannot establish moderator status; treat the message as
		// ordinary content rather than dropping it.
		m.getLogEntry().WithFields(log.Fields{
			"method": "handleCommand",
			"error":  err.Error(),
		}).Error("failed to get chat member, treating as non-moderator")
		return false, nil
	}
	if !permissions.CanModerate(&member) {
		return false, nil
	}

	language := settings.Language

	if msg.ReplyToMessage == nil || msg.ReplyToMessage.From == nil {
		m.reply(msg, chat, i18n.Get("This command must be used as a reply to a message", language))
		return true, nil
	}
	target := msg.ReplyToMessage.From
	if target.ID == m.s.GetBot().Self.ID {
		return true, nil
	}

	duration, reason := parseCommandArguments(msg.CommandArguments())

	entry := m.getLogEntry().WithFields(log.Fields{
		"method":  "handleCommand",
		"command": command,
		"chat_id": chat.ID,
		"target":  target.ID,
	})

	switch command {
	case "warn":
		if reason == "" {
			reason = "manual warning"
		}
		receipt, err := m.ladder.Issue(ctx, chat.ID, target.ID, user.ID, reason)
		if err != nil {
			return true, errors.WithMessage(err, "failed to issue warning")
		}
		text := fmt.Sprintf(i18n.Get("Warned %s (%d/%d)", language), bot.GetUN(target), receipt.ActiveCount, receipt.MaxWarnings)
		if receipt.ThresholdTriggered {
			text += ", " + fmt.Sprintf(i18n.Get("threshold reached: %s", language), receipt.Action)
		}
		m.reply(msg, chat, text)

	case "unwarn":
		if err := m.ladder.RemoveWarnings(ctx, chat.ID, target.ID, user.ID); err != nil {
			return true, errors.WithMessage(err, "failed to clear warnings")
		}
		m.reply(msg, chat, fmt.Sprintf(i18n.Get("Cleared warnings for %s", language), bot.GetUN(target)))

	case "mute", "ban", "kick":
		punishmentType := moderation.PunishmentType(command)
		if reason == "" {
			reason = "manual " + command
		}
		if _, err := m.executor.Execute(ctx, moderation.PunishmentRequest{
			ChatID:    chat.ID,
			ChatTitle: chat.Title,
			UserID:    target.ID,
			IssuedBy:  user.ID,
			Type:      punishmentType,
			Duration:  duration,
			Reason:    reason,
			Source:    moderation.SourceManual,
		}); err != nil {
			entry.WithField("error", err.Error()).Error("punishment failed")
			m.reply(msg, chat, fmt.Sprintf(i18n.Get("Failed to %s %s", language), command, bot.GetUN(target)))
			return true, nil
		}
		m.reply(msg, chat, fmt.Sprintf(i18n.Get("Applied %s to %s", language), command, bot.GetUN(target)))

	case "unmute":
		if err := m.platform.Unrestrict(ctx, chat.ID, target.ID); err != nil {
			entry.WithField("error", err.Error()).Error("failed to unmute")
			return true, nil
		}
		m.antiFlood.Forget(chat.ID, target.ID)
		m.reply(msg, chat, fmt.Sprintf(i18n.Get("Unmuted %s", language), bot.GetUN(target)))

	case "unban":
		if err := m.platform.Unban(ctx, chat.ID, target.ID); err != nil {
			entry.WithField("error", err.Error()).Error("failed to unban")
			return true, nil
		}
		m.antiFlood.Forget(chat.ID, target.ID)
		m.reply(msg, chat, fmt.Sprintf(i18n.Get("Unbanned %s", language), bot.GetUN(target)))
	}

	return true, nil
}

func (m *Moderator) reply(msg *api.Message, chat *api.Chat, text string) {
	responseMsg := api.NewMessage(chat.ID, text)
	responseMsg.ReplyParameters.AllowSendingWithoutReply = true
	responseMsg.ReplyParameters.MessageID = msg.MessageID
	responseMsg.ReplyParameters.ChatID = chat.ID
	responseMsg.MessageThreadID = msg.MessageThreadID
	responseMsg.DisableNotification = true
	if _, err := m.s.GetBot().Send(responseMsg); err != nil {
		m.getLogEntry().WithField("error", err.Error()).Error("failed to send reply")
	}
}

// parseCommandArguments splits "30m spamming links" into a duration and a
// reason. The duration token is optional; "2d"/"1w" day and week suffixes are
// accepted on top of the standard units.
func parseCommandArguments(args string) (time.Duration, string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return 0, ""
	}
	if d, ok := parseHumanDuration(fields[0]); ok {
		return d, strings.Join(fields[1:], " ")
	}
	return 0, strings.Join(fields, " ")
}

func parseHumanDuration(s string) (time.Duration, bool) {
	if s == "" {
		return 0, false
	}
	multiplier := time.Duration(0)
	switch s[len(s)-1] {
	case 'd':
		multiplier = 24 * time.Hour
	case 'w':
		multiplier = 7 * 24 * time.Hour
	}
	if multiplier > 0 {
		n, err := strconv.Atoi(s[:len(s)-1])
		if err != nil || n <= 0 {
			return 0, false
		}
		return time.Duration(n) * multiplier, true
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}
