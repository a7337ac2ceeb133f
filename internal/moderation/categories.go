package moderation

// Category identifies one lockable violation class. A single event may
// match any number of categories independently.
type Category string

const (
	CategoryText           Category = "text"
	CategoryPhoto          Category = "photo"
	CategoryVideo          Category = "video"
	CategoryVoice          Category = "voice"
	CategoryAudio          Category = "audio"
	CategoryDocument       Category = "document"
	CategorySticker        Category = "sticker"
	CategoryDice           Category = "dice"
	CategoryEmojiGame      Category = "emojigame"
	CategoryContact        Category = "contact"
	CategoryLocation       Category = "location"
	CategoryAlbum          Category = "album"
	CategoryForward        Category = "forward"
	CategoryForwardUser    Category = "forwarduser"
	CategoryForwardBot     Category = "forwardbot"
	CategoryForwardChannel Category = "forwardchannel"
	CategoryLink           Category = "link"
	CategoryInvite         Category = "invite"
	CategoryTextLink       Category = "textlink"
	CategoryLinkPreview    Category = "linkpreview"
	CategoryMention        Category = "mention"
	CategoryCustomEmoji    Category = "customemoji"
	CategoryPhone          Category = "phone"
	CategoryEmail          Category = "email"
	CategoryRTLChar        Category = "rtlchar"
	CategorySpoiler        Category = "spoiler"
	CategoryButton         Category = "button"
	CategoryCommands       Category = "commands"
	CategoryEdit           Category = "edit"
	CategoryService        Category = "service"
	CategoryNewMembers     Category = "newmembers"
	CategoryLeftMember     Category = "leftmember"
	CategoryPinned         Category = "pinned"
	CategoryTopic          Category = "topic"
	CategoryAnonChannel    Category = "anonchannel"
	CategoryComment        Category = "comment"
	CategorySignature      Category = "signature"
	CategoryPremium        Category = "premium"
	CategoryInline         Category = "inline"
)

// AllCategories lists every known category in evaluation order. The order is
// stable so the "primary" violation of a multi-lock chat is deterministic.
func AllCategories() []Category {
	return []Category{
		CategoryText,
		CategoryPhoto,
		CategoryVideo,
		CategoryVoice,
		CategoryAudio,
		CategoryDocument,
		CategorySticker,
		CategoryDice,
		CategoryEmojiGame,
		CategoryContact,
		CategoryLocation,
		CategoryAlbum,
		CategoryForward,
		CategoryForwardUser,
		CategoryForwardBot,
		CategoryForwardChannel,
		CategoryLink,
		CategoryInvite,
		CategoryTextLink,
		CategoryLinkPreview,
		CategoryMention,
		CategoryCustomEmoji,
		CategoryPhone,
		CategoryEmail,
		CategoryRTLChar,
		CategorySpoiler,
		CategoryButton,
		CategoryCommands,
		CategoryEdit,
		CategoryService,
		CategoryNewMembers,
		CategoryLeftMember,
		CategoryPinned,
		CategoryTopic,
		CategoryAnonChannel,
		CategoryComment,
		CategorySignature,
		CategoryPremium,
		CategoryInline,
	}
}

// ParseCategory maps a user-supplied lock name to a Category.
func ParseCategory(s string) (Category, bool) {
	for _, c := range AllCategories() {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}
