package moderation

import (
	"net/url"
	"strings"
	"unicode"
)

func registerDefaults(r *Registry) {
	r.Register(CategoryText, classifyText)
	r.Register(CategoryPhoto, mediaClassifier(MediaKindPhoto))
	r.Register(CategoryVideo, mediaClassifier(MediaKindVideo))
	r.Register(CategoryVoice, mediaClassifier(MediaKindVoice))
	r.Register(CategoryAudio, mediaClassifier(MediaKindAudio))
	r.Register(CategoryDocument, mediaClassifier(MediaKindDocument))
	r.Register(CategorySticker, mediaClassifier(MediaKindSticker))
	r.Register(CategoryDice, classifyDice)
	r.Register(CategoryEmojiGame, classifyEmojiGame)
	r.Register(CategoryContact, mediaClassifier(MediaKindContact))
	r.Register(CategoryLocation, mediaClassifier(MediaKindLocation))
	r.Register(CategoryAlbum, classifyAlbum)
	r.Register(CategoryForward, classifyForward)
	r.Register(CategoryForwardUser, forwardClassifier(ForwardSourceUser, ForwardSourceHidden))
	r.Register(CategoryForwardBot, forwardClassifier(ForwardSourceBot))
	r.Register(CategoryForwardChannel, forwardClassifier(ForwardSourceChannel))
	r.Register(CategoryLink, classifyLink)
	r.Register(CategoryInvite, classifyInvite)
	r.Register(CategoryTextLink, classifyTextLink)
	r.Register(CategoryLinkPreview, classifyLinkPreview)
	r.Register(CategoryMention, classifyMention)
	r.Register(CategoryCustomEmoji, classifyCustomEmoji)
	r.Register(CategoryPhone, classifyPhone)
	r.Register(CategoryEmail, classifyEmail)
	r.Register(CategoryRTLChar, classifyRTLChar)
	r.Register(CategorySpoiler, classifySpoiler)
	r.Register(CategoryButton, classifyButton)
	r.Register(CategoryCommands, classifyCommands)
	r.Register(CategoryEdit, classifyEdit)
	r.Register(CategoryService, classifyService)
	r.Register(CategoryNewMembers, serviceClassifier(ServiceEventNewMembers))
	r.Register(CategoryLeftMember, serviceClassifier(ServiceEventLeftMember))
	r.Register(CategoryPinned, serviceClassifier(ServiceEventPinned))
	r.Register(CategoryTopic, serviceClassifier(ServiceEventTopic))
	r.Register(CategoryAnonChannel, classifyAnonChannel)
	r.Register(CategoryComment, classifyComment)
	r.Register(CategorySignature, classifySignature)
	r.Register(CategoryPremium, classifyPremium)
	r.Register(CategoryInline, classifyInline)
}

func classifyText(ev *ContentEvent, _ *EvalContext) bool {
	return ev.MediaKind == MediaKindNone && !ev.IsServiceEvent && ev.plainText() != ""
}

func mediaClassifier(kind MediaKind) Classifier {
	return func(ev *ContentEvent, _ *EvalContext) bool {
		return ev.MediaKind == kind
	}
}

const plainDiceEmoji = "🎲"

func classifyDice(ev *ContentEvent, _ *EvalContext) bool {
	return ev.MediaKind == MediaKindDice && ev.DiceEmoji == plainDiceEmoji
}

// Emoji games are the dice-style animations other than the plain die: darts,
// basketball, slot machine and friends.
func classifyEmojiGame(ev *ContentEvent, _ *EvalContext) bool {
	return ev.MediaKind == MediaKindDice && ev.DiceEmoji != "" && ev.DiceEmoji != plainDiceEmoji
}

func classifyAlbum(ev *ContentEvent, _ *EvalContext) bool {
	return ev.HasMediaGroup
}

func classifyForward(ev *ContentEvent, _ *EvalContext) bool {
	return ev.IsForwarded
}

func forwardClassifier(kinds ...ForwardSourceKind) Classifier {
	return func(ev *ContentEvent, _ *EvalContext) bool {
		if !ev.IsForwarded {
			return false
		}
		for _, k := range kinds {
			if ev.ForwardSourceKind == k {
				return true
			}
		}
		return false
	}
}

func classifyLink(ev *ContentEvent, ectx *EvalContext) bool {
	for _, span := range ev.TextSpans {
		target := linkTarget(span)
		if target == "" {
			continue
		}
		if !urlAllowed(target, ectx) {
			return true
		}
	}
	return false
}

func classifyInvite(ev *ContentEvent, _ *EvalContext) bool {
	for _, span := range ev.TextSpans {
		target := linkTarget(span)
		if target == "" {
			continue
		}
		if isInviteLink(target) {
			return true
		}
	}
	return false
}

func classifyTextLink(ev *ContentEvent, _ *EvalContext) bool {
	return ev.hasSpan(SpanTagTextLink)
}

func classifyLinkPreview(ev *ContentEvent, _ *EvalContext) bool {
	return ev.HasLinkPreview
}

func classifyMention(ev *ContentEvent, _ *EvalContext) bool {
	return ev.hasSpan(SpanTagMention)
}

func classifyCustomEmoji(ev *ContentEvent, _ *EvalContext) bool {
	return ev.hasSpan(SpanTagCustomEmoji)
}

func classifyPhone(ev *ContentEvent, _ *EvalContext) bool {
	return ev.hasSpan(SpanTagPhone)
}

func classifyEmail(ev *ContentEvent, _ *EvalContext) bool {
	return ev.hasSpan(SpanTagEmail)
}

func classifyRTLChar(ev *ContentEvent, _ *EvalContext) bool {
	for _, span := range ev.TextSpans {
		for _, r := range span.Text {
			if isRTLRune(r) {
				return true
			}
		}
	}
	return false
}

func classifySpoiler(ev *ContentEvent, _ *EvalContext) bool {
	return ev.HasSpoiler || ev.hasSpan(SpanTagSpoiler)
}

func classifyButton(ev *ContentEvent, _ *EvalContext) bool {
	return ev.HasInlineKeyboard
}

func classifyCommands(ev *ContentEvent, ectx *EvalContext) bool {
	for _, span := range ev.Spans(SpanTagBotCommand) {
		if !commandAllowed(span.Text, ectx) {
			return true
		}
	}
	return false
}

func classifyEdit(ev *ContentEvent, _ *EvalContext) bool {
	return ev.IsEdited
}

func classifyService(ev *ContentEvent, _ *EvalContext) bool {
	return ev.IsServiceEvent
}

func serviceClassifier(kind ServiceEventKind) Classifier {
	return func(ev *ContentEvent, _ *EvalContext) bool {
		return ev.IsServiceEvent && ev.ServiceEventKind == kind
	}
}

func classifyAnonChannel(ev *ContentEvent, _ *EvalContext) bool {
	return ev.SenderIsChannel || ev.IsFromLinkedChannel
}

func classifyComment(ev *ContentEvent, _ *EvalContext) bool {
	return ev.ReplyToIsChannelPost
}

func classifySignature(ev *ContentEvent, _ *EvalContext) bool {
	return ev.HasSignature
}

func classifyPremium(ev *ContentEvent, _ *EvalContext) bool {
	return ev.SenderIsPremium
}

func classifyInline(ev *ContentEvent, _ *EvalContext) bool {
	return ev.ViaInlineBot
}

func linkTarget(span TextSpan) string {
	if span.HasTag(SpanTagTextLink) && span.URL != "" {
		return span.URL
	}
	if span.HasTag(SpanTagURL) {
		return span.Text
	}
	return ""
}

// urlAllowed reports whether the target matches the chat's allowlist. With no
// allowlist entries at all, every link violates: the allowlist is opt-in
// exceptions, not default-allow.
func urlAllowed(target string, ectx *EvalContext) bool {
	if ectx == nil || (len(ectx.AllowedURLs) == 0 && len(ectx.AllowedDomains) == 0) {
		return false
	}
	normalized := normalizeURL(target)
	for _, allowed := range ectx.AllowedURLs {
		if normalizeURL(allowed) == normalized {
			return true
		}
	}
	host := urlHost(target)
	if host == "" {
		return false
	}
	for _, domain := range ectx.AllowedDomains {
		domain = strings.ToLower(strings.TrimPrefix(domain, "www."))
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func commandAllowed(command string, ectx *EvalContext) bool {
	if ectx == nil || len(ectx.AllowedCommands) == 0 {
		return false
	}
	name := strings.ToLower(strings.TrimPrefix(command, "/"))
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	for _, allowed := range ectx.AllowedCommands {
		if strings.ToLower(strings.TrimPrefix(allowed, "/")) == name {
			return true
		}
	}
	return false
}

func normalizeURL(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	return strings.TrimSuffix(s, "/")
}

func urlHost(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

var inviteHosts = map[string]struct{}{
	"t.me":         {},
	"telegram.me":  {},
	"telegram.dog": {},
}

func isInviteLink(target string) bool {
	host := urlHost(target)
	if _, ok := inviteHosts[host]; !ok {
		return false
	}
	s := target
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	path := strings.TrimPrefix(u.EscapedPath(), "/")
	return strings.HasPrefix(path, "+") || strings.HasPrefix(strings.ToLower(path), "joinchat")
}

func isRTLRune(r rune) bool {
	switch {
	case r >= 0x0590 && r <= 0x08FF: // Hebrew, Arabic, Syriac, Thaana and extensions
		return true
	case r >= 0xFB1D && r <= 0xFDFF: // presentation forms
		return true
	case r >= 0xFE70 && r <= 0xFEFF:
		return true
	case r == 0x200F || r == 0x202B || r == 0x202E || r == 0x2067: // bidi controls forcing RTL
		return true
	}
	return unicode.Is(unicode.Arabic, r) || unicode.Is(unicode.Hebrew, r)
}
