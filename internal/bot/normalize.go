package bot

import (
	"unicode/utf16"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/iamwavecut/chatwarden/internal/moderation"
)

// BuildContentEvent flattens a raw update into the normalized event the
// moderation pipeline consumes. Returns nil for updates that carry no
// message payload at all.
func BuildContentEvent(u *api.Update) *moderation.ContentEvent {
	if u == nil {
		return nil
	}
	msg := u.Message
	edited := false
	if msg == nil {
		msg = u.EditedMessage
		edited = true
	}
	if msg == nil {
		return nil
	}

	ev := &moderation.ContentEvent{
		MessageID: msg.MessageID,
		IsEdited:  edited,
		ThreadID:  msg.MessageThreadID,
	}
	if msg.Chat.ID != 0 {
		ev.ChatID = msg.Chat.ID
		ev.ChatTitle = msg.Chat.Title
	}
	if msg.From != nil {
		ev.UserID = msg.From.ID
		ev.SenderIsBot = msg.From.IsBot
		ev.SenderUsername = msg.From.UserName
		ev.SenderIsPremium = msg.From.IsPremium
	}

	ev.IsFromLinkedChannel = msg.IsAutomaticForward
	if msg.SenderChat != nil && !msg.IsAutomaticForward {
		ev.SenderIsChannel = true
		if ev.SenderUsername == "" {
			ev.SenderUsername = msg.SenderChat.UserName
		}
	}

	ev.TextSpans = extractSpans(msg)
	ev.MediaKind, ev.DiceEmoji = extractMedia(msg)
	ev.HasMediaGroup = msg.MediaGroupID != ""
	ev.HasSpoiler = msg.HasMediaSpoiler
	ev.HasSignature = msg.AuthorSignature != ""
	ev.ViaInlineBot = msg.ViaBot != nil
	ev.HasInlineKeyboard = msg.ReplyMarkup != nil && len(msg.ReplyMarkup.InlineKeyboard) > 0
	ev.HasLinkPreview = msg.LinkPreviewOptions != nil && !msg.LinkPreviewOptions.IsDisabled

	if msg.ForwardOrigin != nil {
		ev.IsForwarded = true
		ev.ForwardSourceKind = forwardSource(msg.ForwardOrigin)
	}

	if msg.ReplyToMessage != nil && msg.ReplyToMessage.IsAutomaticForward {
		ev.ReplyToIsChannelPost = true
	}

	if kind, ok := serviceEventKind(msg); ok {
		ev.IsServiceEvent = true
		ev.ServiceEventKind = kind
	}

	return ev
}

func forwardSource(origin *api.MessageOrigin) moderation.ForwardSourceKind {
	switch origin.Type {
	case "user":
		if origin.SenderUser != nil && origin.SenderUser.IsBot {
			return moderation.ForwardSourceBot
		}
		return moderation.ForwardSourceUser
	case "hidden_user":
		return moderation.ForwardSourceHidden
	case "channel":
		return moderation.ForwardSourceChannel
	case "chat":
		if origin.SenderChat != nil && origin.SenderChat.IsChannel() {
			return moderation.ForwardSourceChannel
		}
		return moderation.ForwardSourceUser
	}
	return moderation.ForwardSourceUser
}

func extractMedia(msg *api.Message) (moderation.MediaKind, string) {
	switch {
	case msg.Photo != nil:
		return moderation.MediaKindPhoto, ""
	case msg.Video != nil, msg.Animation != nil, msg.VideoNote != nil:
		return moderation.MediaKindVideo, ""
	case msg.Voice != nil:
		return moderation.MediaKindVoice, ""
	case msg.Audio != nil:
		return moderation.MediaKindAudio, ""
	case msg.Document != nil:
		return moderation.MediaKindDocument, ""
	case msg.Sticker != nil:
		return moderation.MediaKindSticker, ""
	case msg.Contact != nil:
		return moderation.MediaKindContact, ""
	case msg.Location != nil, msg.Venue != nil:
		return moderation.MediaKindLocation, ""
	case msg.Dice != nil:
		return moderation.MediaKindDice, msg.Dice.Emoji
	}
	return moderation.MediaKindNone, ""
}

func serviceEventKind(msg *api.Message) (moderation.ServiceEventKind, bool) {
	switch {
	case msg.NewChatMembers != nil:
		return moderation.ServiceEventNewMembers, true
	case msg.LeftChatMember != nil:
		return moderation.ServiceEventLeftMember, true
	case msg.PinnedMessage != nil:
		return moderation.ServiceEventPinned, true
	case msg.ForumTopicCreated != nil, msg.ForumTopicEdited != nil,
		msg.ForumTopicClosed != nil, msg.ForumTopicReopened != nil:
		return moderation.ServiceEventTopic, true
	case msg.NewChatTitle != "", msg.NewChatPhoto != nil, msg.DeleteChatPhoto,
		msg.GroupChatCreated, msg.SuperGroupChatCreated,
		msg.VideoChatStarted != nil, msg.VideoChatEnded != nil,
		msg.VideoChatParticipantsInvited != nil,
		msg.MessageAutoDeleteTimerChanged != nil:
		return moderation.ServiceEventOther, true
	}
	return moderation.ServiceEventNone, false
}

// extractSpans turns the message body, caption and button labels into tagged
// spans. Entity offsets are UTF-16 code units per the Bot API, so slicing
// goes through utf16 encode/decode rather than byte indexing.
func extractSpans(msg *api.Message) []moderation.TextSpan {
	text := msg.Text
	entities := msg.Entities
	if text == "" && msg.Caption != "" {
		text = msg.Caption
		entities = msg.CaptionEntities
	}

	var spans []moderation.TextSpan
	if text != "" {
		spans = append(spans, moderation.TextSpan{
			Text: text,
			Tags: []moderation.SpanTag{moderation.SpanTagPlain},
		})
	}

	units := utf16.Encode([]rune(text))
	for _, entity := range entities {
		tag, ok := entityTag(entity.Type)
		if !ok {
			continue
		}
		span := moderation.TextSpan{
			Text: sliceUTF16(units, entity.Offset, entity.Length),
			Tags: []moderation.SpanTag{tag},
		}
		if entity.Type == "text_link" {
			span.URL = entity.URL
		}
		spans = append(spans, span)
	}

	if msg.ReplyMarkup != nil {
		for _, row := range msg.ReplyMarkup.InlineKeyboard {
			for _, button := range row {
				if button.Text != "" {
					spans = append(spans, moderation.TextSpan{
						Text: button.Text,
						Tags: []moderation.SpanTag{moderation.SpanTagPlain},
					})
				}
				if button.URL != nil && *button.URL != "" {
					spans = append(spans, moderation.TextSpan{
						Text: *button.URL,
						Tags: []moderation.SpanTag{moderation.SpanTagURL},
					})
				}
			}
		}
	}

	return spans
}

func entityTag(entityType string) (moderation.SpanTag, bool) {
	switch entityType {
	case "url":
		return moderation.SpanTagURL, true
	case "text_link":
		return moderation.SpanTagTextLink, true
	case "mention", "text_mention":
		return moderation.SpanTagMention, true
	case "email":
		return moderation.SpanTagEmail, true
	case "phone_number":
		return moderation.SpanTagPhone, true
	case "bot_command":
		return moderation.SpanTagBotCommand, true
	case "custom_emoji":
		return moderation.SpanTagCustomEmoji, true
	case "spoiler":
		return moderation.SpanTagSpoiler, true
	}
	return "", false
}

func sliceUTF16(units []uint16, offset, length int) string {
	if offset < 0 || length <= 0 || offset >= len(units) {
		return ""
	}
	end := offset + length
	if end > len(units) {
		end = len(units)
	}
	return string(utf16.Decode(units[offset:end]))
}
