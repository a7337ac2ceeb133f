package bot

import (
	"context"
	"fmt"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/iamwavecut/chatwarden/internal/db"
	"github.com/iamwavecut/chatwarden/internal/policy/permissions"
)

const (
	adminCacheSize = 4096
	adminCacheTTL  = 30 * time.Second
)

type service struct {
	bot *api.BotAPI
	db  db.Client

	// Admin status is read on every event; cache it briefly and collapse
	// concurrent lookups for the same member into one platform call.
	adminCache *expirable.LRU[string, bool]
	adminGroup singleflight.Group
}

func NewService(botAPI *api.BotAPI, client db.Client) *service {
	return &service{
		bot:        botAPI,
		db:         client,
		adminCache: expirable.NewLRU[string, bool](adminCacheSize, nil, adminCacheTTL),
	}
}

func (s *service) GetBot() *api.BotAPI {
	return s.bot
}

func (s *service) GetDB() db.Client {
	return s.db
}

func (s *service) BotUsername() string {
	if s.bot == nil {
		return ""
	}
	return s.bot.Self.UserName
}

func (s *service) GetSettings(ctx context.Context, chatID int64) (*db.Settings, error) {
	return s.db.GetSettings(ctx, chatID)
}

func (s *service) SetSettings(ctx context.Context, settings *db.Settings) error {
	return s.db.SetSettings(ctx, settings)
}

func (s *service) IsAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	key := fmt.Sprintf("%d/%d", chatID, userID)
	if isAdmin, ok := s.adminCache.Get(key); ok {
		return isAdmin, nil
	}

	result, err, _ := s.adminGroup.Do(key, func() (interface{}, error) {
		member, err := s.bot.GetChatMember(api.GetChatMemberConfig{
			ChatConfigWithUser: api.ChatConfigWithUser{
				ChatConfig: api.ChatConfig{ChatID: chatID},
				UserID:     userID,
			},
		})
		if err != nil {
			return false, err
		}
		isAdmin := permissions.IsExempt(&member)
		s.adminCache.Add(key, isAdmin)
		return isAdmin, nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to get chat member: %w", err)
	}
	isAdmin, _ := result.(bool)
	return isAdmin, nil
}
