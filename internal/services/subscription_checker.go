package services

import (
	"context"
	"fmt"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	gocache "github.com/patrickmn/go-cache"
	"github.com/samber/lo"
	"strconv"
	"time"
)

type chatMemberGetter interface {
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

var subscribedStatuses = []string{"creator", "administrator", "member"}

// SubscriptionChecker tells whether a user is a member of a gating channel.
// Only positive answers are cached, so a fresh subscription is noticed on the next check.
type SubscriptionChecker struct {
	api   chatMemberGetter
	cache *gocache.Cache
}

func NewSubscriptionChecker(api chatMemberGetter, cacheTTL time.Duration) *SubscriptionChecker {
	checker := &SubscriptionChecker{api: api}
	if cacheTTL > 0 {
		checker.cache = gocache.New(cacheTTL, 2*cacheTTL)
	}
	return checker
}

// IsSubscribed returns true for an empty channel: subjects without a channel are not gated.
func (s *SubscriptionChecker) IsSubscribed(ctx context.Context, channel string, userID int64) (bool, error) {
	if channel == "" {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	key := channel + ":" + strconv.FormatInt(userID, 10)
	if s.cache != nil {
		if _, found := s.cache.Get(key); found {
			return true, nil
		}
	}

	member, err := s.api.GetChatMember(tgbotapi.GetChatMemberConfig{ChatConfigWithUser: chatWithUser(channel, userID)})
	if err != nil {
		return false, fmt.Errorf("couldn't get membership of user %d in %s: %w", userID, channel, err)
	}

	subscribed := lo.Contains(subscribedStatuses, member.Status)
	if subscribed && s.cache != nil {
		s.cache.SetDefault(key, struct{}{})
	}
	return subscribed, nil
}

func chatWithUser(channel string, userID int64) tgbotapi.ChatConfigWithUser {
	if chatID, err := strconv.ParseInt(channel, 10, 64); err == nil {
		return tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID}
	}
	return tgbotapi.ChatConfigWithUser{SuperGroupUsername: channel, UserID: userID}
}
