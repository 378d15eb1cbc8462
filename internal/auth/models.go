package auth

// 角色
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// BootstrapUsername 首次运行时允许自动创建的保留用户名
const BootstrapUsername = "admin"

// Identity 已解析的身份
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RedirectTo string `json:"redirectTo,omitempty"`
}

// SettingsRequest 账号设置请求，新值为空表示保持不变
type SettingsRequest struct {
	OldPassword string `json:"oldPassword"`
	NewUsername string `json:"newUsername,omitempty"`
	NewPassword string `json:"newPassword,omitempty"`
}

// AuthResponse API 响应
type AuthResponse struct {
	Success    bool      `json:"success"`
	Message    string    `json:"message,omitempty"`
	Error      string    `json:"error,omitempty"`
	User       *Identity `json:"user,omitempty"`
	Guest      bool      `json:"guest,omitempty"`
	RedirectTo string    `json:"redirectTo,omitempty"`
}
