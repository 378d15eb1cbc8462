package auth

import "context"

// State 会话的身份状态：Guest 或 Authenticated
type State struct {
	identity *Identity
}

// Guest 访客状态
func Guest() State {
	return State{}
}

// Authenticated 已登录状态
func Authenticated(identity Identity) State {
	return State{identity: &identity}
}

// IsGuest 是否访客
func (s State) IsGuest() bool {
	return s.identity == nil
}

// Identity 已登录时返回身份
func (s State) Identity() (Identity, bool) {
	if s.identity == nil {
		return Identity{}, false
	}
	return *s.identity, true
}

// Login 凭据校验通过后进入 Authenticated；失败时状态不变。
// 访客本地数据不会迁移到服务端。
func (s State) Login(ctx context.Context, svc *Service, username, password string) (State, error) {
	identity, err := svc.Login(ctx, username, password)
	if err != nil {
		return s, err
	}
	return Authenticated(*identity), nil
}

// Logout 回到访客状态，不删除任何持久化数据
func (s State) Logout() State {
	return Guest()
}
