package moderation

// SpanTag marks the semantic kind of a text span. Captions, body text and
// button labels all carry the same tagging so text-scanning classifiers never
// care where a span came from.
type SpanTag string

const (
	SpanTagPlain       SpanTag = "plain"
	SpanTagURL         SpanTag = "url"
	SpanTagTextLink    SpanTag = "text_link"
	SpanTagMention     SpanTag = "mention"
	SpanTagEmail       SpanTag = "email"
	SpanTagPhone       SpanTag = "phone"
	SpanTagBotCommand  SpanTag = "bot_command"
	SpanTagCustomEmoji SpanTag = "custom_emoji"
	SpanTagSpoiler     SpanTag = "spoiler"
)

type TextSpan struct {
	Text string
	// URL is set for text_link spans, where the target differs from the
	// visible text.
	URL  string
	Tags []SpanTag
}

func (s TextSpan) HasTag(tag SpanTag) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

type MediaKind string

const (
	MediaKindNone     MediaKind = ""
	MediaKindPhoto    MediaKind = "photo"
	MediaKindVideo    MediaKind = "video"
	MediaKindVoice    MediaKind = "voice"
	MediaKindAudio    MediaKind = "audio"
	MediaKindDocument MediaKind = "document"
	MediaKindSticker  MediaKind = "sticker"
	MediaKindContact  MediaKind = "contact"
	MediaKindLocation MediaKind = "location"
	MediaKindDice     MediaKind = "dice"
)

type ForwardSourceKind string

const (
	ForwardSourceNone    ForwardSourceKind = ""
	ForwardSourceUser    ForwardSourceKind = "user"
	ForwardSourceBot     ForwardSourceKind = "bot"
	ForwardSourceChannel ForwardSourceKind = "channel"
	ForwardSourceHidden  ForwardSourceKind = "hidden"
)

type ServiceEventKind string

const (
	ServiceEventNone       ServiceEventKind = ""
	ServiceEventNewMembers ServiceEventKind = "new_members"
	ServiceEventLeftMember ServiceEventKind = "left_member"
	ServiceEventPinned     ServiceEventKind = "pinned"
	ServiceEventTopic      ServiceEventKind = "topic"
	ServiceEventOther      ServiceEventKind = "other"
)

// ContentEvent is the normalized view of one inbound platform update. The
// ingestion layer produces it; classifiers only ever see this shape.
type ContentEvent struct {
	ChatID    int64
	ChatTitle string
	MessageID int
	UserID    int64

	SenderIsBot     bool
	SenderUsername  string
	SenderIsPremium bool

	// SenderIsChannel is set when the message was posted on behalf of a
	// channel instead of an identifiable user.
	SenderIsChannel bool
	// IsFromLinkedChannel is set for automatic forwards from the chat's
	// linked discussion channel.
	IsFromLinkedChannel bool

	TextSpans []TextSpan

	MediaKind     MediaKind
	DiceEmoji     string
	HasMediaGroup bool
	HasSpoiler    bool

	IsForwarded       bool
	ForwardSourceKind ForwardSourceKind

	IsEdited             bool
	ReplyToIsChannelPost bool
	HasInlineKeyboard    bool
	HasLinkPreview       bool
	HasSignature         bool
	ViaInlineBot         bool
	ThreadID             int

	IsServiceEvent   bool
	ServiceEventKind ServiceEventKind
}

// EvalContext carries the chat's allowlists, pre-lowered for case-insensitive
// matching. Only the link and commands classifiers consult it.
type EvalContext struct {
	AllowedURLs     []string
	AllowedDomains  []string
	AllowedCommands []string
}

// Spans returns all spans carrying the given tag.
func (ev *ContentEvent) Spans(tag SpanTag) []TextSpan {
	var out []TextSpan
	for _, s := range ev.TextSpans {
		if s.HasTag(tag) {
			out = append(out, s)
		}
	}
	return out
}

func (ev *ContentEvent) hasSpan(tag SpanTag) bool {
	for _, s := range ev.TextSpans {
		if s.HasTag(tag) {
			return true
		}
	}
	return false
}

func (ev *ContentEvent) plainText() string {
	for _, s := range ev.TextSpans {
		if s.HasTag(SpanTagPlain) && s.Text != "" {
			return s.Text
		}
	}
	return ""
}
