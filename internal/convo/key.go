package convo

import "strings"

// Key identifies a transcript. UserID is empty for shared scope.
type Key struct {
	Scope  ScopeKind
	ChatID string
	UserID string
}

// ResolveKey는 대화 범위에 따라 기록 키를 만든다.
// direct: 채팅+참여자, shared: 채팅만 (참여자 무시).
func ResolveKey(scope ScopeKind, chatID, userID string) Key {
	chatID = strings.TrimSpace(chatID)
	if scope == ScopeShared {
		return Key{Scope: ScopeShared, ChatID: chatID}
	}
	return Key{Scope: ScopeDirect, ChatID: chatID, UserID: strings.TrimSpace(userID)}
}

func (k Key) String() string {
	if k.Scope == ScopeShared {
		return "shared:" + k.ChatID
	}
	return "direct:" + k.ChatID + ":" + k.UserID
}

func (k Key) valid() bool {
	if k.ChatID == "" {
		return false
	}
	return k.Scope == ScopeShared || k.Scope == ScopeDirect
}
