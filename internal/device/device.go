// Package device 终端上的浏览会话：身份令牌与当前选择保存在本设备的键值存储中，
// 每次命令执行时恢复，执行完毕后写回。
package device

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"gorm.io/gorm"

	"MoriTags/internal/auth"
	"MoriTags/internal/collection"
	"MoriTags/internal/customtag"
	domainerrors "MoriTags/internal/errors"
	"MoriTags/internal/guest"
	log "MoriTags/internal/log"
	"MoriTags/internal/selection"
	"MoriTags/internal/tag"
	"MoriTags/internal/workspace"
)

// 本设备存储中的键
const (
	KeySelection = "selection"
	KeySession   = "session"
)

var (
	errNoDatabase    = domainerrors.Storage(stderrors.New("未配置数据库"))
	errLoginRequired = domainerrors.Unauthorized("Login required")
)

// Options 设备会话依赖
type Options struct {
	Local       guest.KV
	DB          *gorm.DB
	Sessions    *auth.Sessions
	Credentials auth.Credentials
	Priority    tag.PriorityTable
}

// Device 一台设备上的会话
type Device struct {
	local       guest.KV
	sessions    *auth.Sessions
	authService *auth.Service
	backends    workspace.Backends
}

// New 创建设备会话
func New(opts Options) *Device {
	d := &Device{
		local:    opts.Local,
		sessions: opts.Sessions,
		backends: workspace.Backends{
			Local:    opts.Local,
			Priority: opts.Priority,
		},
	}
	if opts.DB != nil {
		tagService := tag.NewService(opts.DB)
		d.authService = auth.NewService(opts.DB, opts.Credentials)
		d.backends.Catalog = tagService
		d.backends.CustomTags = customtag.NewService(opts.DB)
		d.backends.Collections = collection.NewService(opts.DB)
	}
	return d
}

// State 从保存的令牌恢复身份；令牌无效或用户已不存在时回到访客并清除令牌
func (d *Device) State(ctx context.Context) auth.State {
	token, ok, err := d.local.Get(KeySession)
	if err != nil {
		log.Warnf("读取会话令牌失败: %v", err)
		return auth.Guest()
	}
	if !ok || token == "" || d.sessions == nil || d.authService == nil {
		return auth.Guest()
	}

	claims, err := d.sessions.Parse(token)
	if err == nil {
		var userID int64
		if userID, err = claims.UserID(); err == nil {
			var identity *auth.Identity
			if identity, err = d.authService.GetUser(ctx, userID); err == nil {
				return auth.Authenticated(*identity)
			}
		}
	}

	log.Debugf("会话令牌失效，回到访客: %v", err)
	if err := d.local.Delete(KeySession); err != nil {
		log.Warnf("清除会话令牌失败: %v", err)
	}
	return auth.Guest()
}

// Open 恢复身份与上次的选择，返回本次命令使用的工作区
func (d *Device) Open(ctx context.Context) *workspace.Workspace {
	w := workspace.Open(d.State(ctx), d.backends)
	w.SetSelection(d.loadSelection())
	return w
}

// Persist 写回当前选择
func (d *Device) Persist(w *workspace.Workspace) error {
	raw, err := json.Marshal(w.Selection())
	if err != nil {
		return err
	}
	return d.local.Set(KeySelection, string(raw))
}

// Login 校验凭据并保存令牌；失败时设备状态不变
func (d *Device) Login(ctx context.Context, username, password string) (auth.Identity, error) {
	if d.authService == nil || d.sessions == nil {
		return auth.Identity{}, errNoDatabase
	}

	state, err := d.State(ctx).Login(ctx, d.authService, username, password)
	if err != nil {
		return auth.Identity{}, err
	}
	identity, _ := state.Identity()

	token, _, err := d.sessions.Issue(identity)
	if err != nil {
		return auth.Identity{}, err
	}
	if err := d.local.Set(KeySession, token); err != nil {
		return auth.Identity{}, err
	}
	return identity, nil
}

// Logout 删除令牌；本地访客数据与服务端数据都保留
func (d *Device) Logout() error {
	return d.local.Delete(KeySession)
}

// UpdateSettings 修改当前登录用户的用户名和/或密码
func (d *Device) UpdateSettings(ctx context.Context, req auth.SettingsRequest) (*auth.Identity, error) {
	identity, ok := d.State(ctx).Identity()
	if !ok {
		return nil, errLoginRequired
	}
	return d.authService.UpdateSettings(ctx, identity.ID, req)
}

// loadSelection 读取上次的选择，数据损坏时视为空
func (d *Device) loadSelection() selection.Selection {
	raw, ok, err := d.local.Get(KeySelection)
	if err != nil || !ok {
		return selection.Selection{}
	}
	var s selection.Selection
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		log.Warnf("本地选择数据损坏，已重置: %v", err)
		return selection.Selection{}
	}
	return s
}
