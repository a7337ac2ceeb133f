package permissions

import api "github.com/OvyFlash/telegram-bot-api"

// IsExempt reports whether the member bypasses lock enforcement entirely:
// the chat creator and every administrator.
func IsExempt(member *api.ChatMember) bool {
	if member == nil {
		return false
	}
	return member.IsCreator() || member.IsAdministrator()
}

// CanModerate reports whether the member may run moderation commands. Being
// admin is not enough in chats with narrowly scoped admin roles; the member
// must be able to restrict others.
func CanModerate(member *api.ChatMember) bool {
	if member == nil {
		return false
	}
	if member.IsCreator() {
		return true
	}
	return member.IsAdministrator() && member.CanRestrictMembers
}
