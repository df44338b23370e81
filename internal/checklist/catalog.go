// Package checklist holds the static onboarding catalog and the pure
// functions that turn live progress into display sections.
package checklist

import (
	"github.com/marcus/onboard/internal/models"
)

// DefaultUserName marks a user that has not completed the welcome step.
const DefaultUserName = "新用户"

// MaxUserNameLength is the display name ceiling, in runes.
const MaxUserNameLength = 20

// Section IDs in priority order
const (
	SectionAccounts = "accounts"
	SectionDev      = "dev"
	SectionTools    = "tools"
	SectionWorkflow = "workflow"
)

// Guide read flags outside the dev guide
const (
	GuideTools    = models.ReadKeyTools
	GuideWorkflow = models.ReadKeyWorkflow
)

var defaultAccountItems = []models.Item{
	{ID: "corp-email", Title: "获取企业邮箱与申请版本日志推送", ETAMinutes: 3, Done: true},
	{ID: "vpn", Title: "安装VPN", ETAMinutes: 8},
	{ID: "aicoin", Title: "安装 AiCoin 软件", ETAMinutes: 5},
	{ID: "itask", Title: "注册 iTask 账号", ETAMinutes: 5},
	{ID: "gitlab", Title: "注册 GitLab 账号", ETAMinutes: 5},
	{ID: "figma", Title: "注册 Figma 账号", ETAMinutes: 4},
	{ID: "wechat", Title: "加入企业微信群", ETAMinutes: 6},
}

// devTopics are the per-platform dev guide sections, in display order.
var devTopics = []string{"pre", "env", "flow", "branch", "commit"}

var devPlatformPrefixes = map[models.Platform]string{
	models.PlatformPC:      "pc",
	models.PlatformIOS:     "ios",
	models.PlatformAndroid: "android",
}

// devPlatformOrder keeps key listings stable.
var devPlatformOrder = []models.Platform{models.PlatformPC, models.PlatformIOS, models.PlatformAndroid}

type devReadItem struct {
	id    string
	title string
	eta   int
	topic string
}

var devReadItems = []devReadItem{
	{id: "env-read", title: "开发环境搭建", eta: 8, topic: "env"},
	{id: "flow-read", title: "整体流程", eta: 6, topic: "flow"},
	{id: "branch-read", title: "GitLab 分支规范", eta: 6, topic: "branch"},
	{id: "commit-read", title: "Commit 规范", eta: 5, topic: "commit"},
}

var devExtraItems = []models.Item{
	{ID: "common", Title: "通用开发规范（分支 / MR / Review）", ETAMinutes: 10},
	{ID: "android-setup", Title: "Android 环境搭建", ETAMinutes: 20},
	{ID: "android-run", Title: "Android 项目启动与运行", ETAMinutes: 15},
	{ID: "android-faq", Title: "Android 常见问题", ETAMinutes: 8},
}

var toolItems = []models.Item{
	{ID: "figma-use", Title: "Figma：看稿、标注、切图规则", ETAMinutes: 12},
	{ID: "itask-use", Title: "iTask：任务状态流转与协作", ETAMinutes: 10},
	{ID: "gitlab-use", Title: "GitLab：提 MR 与 Code Review", ETAMinutes: 12},
}

var workflowItems = []models.Item{
	{ID: "demo-flow", Title: "Demo 版本工作流程", ETAMinutes: 10},
	{ID: "classic-flow", Title: "传统版本工作流程", ETAMinutes: 12},
}

var sectionTitles = map[string]string{
	SectionAccounts: "账号注册",
	SectionDev:      "开发指南",
	SectionTools:    "软件使用",
	SectionWorkflow: "工作流程",
}

// DefaultAccountItems returns a fresh copy of the account checklist catalog.
func DefaultAccountItems() []models.Item {
	return models.CloneItems(defaultAccountItems)
}

// DevReadKey returns the read flag for a dev guide topic on a platform,
// e.g. DevReadKey(PlatformIOS, "env") == "ios_env".
func DevReadKey(p models.Platform, topic string) string {
	prefix, ok := devPlatformPrefixes[p]
	if !ok {
		prefix = devPlatformPrefixes[models.PlatformPC]
	}
	return prefix + "_" + topic
}

// DevReadKeys lists every dev guide flag of the current catalog.
func DevReadKeys() []string {
	keys := make([]string, 0, len(devPlatformOrder)*len(devTopics))
	for _, p := range devPlatformOrder {
		for _, topic := range devTopics {
			keys = append(keys, DevReadKey(p, topic))
		}
	}
	return keys
}

// GuideReadKeys lists the non-dev guide flags.
func GuideReadKeys() []string {
	return []string{GuideTools, GuideWorkflow}
}

// DevTopics lists the per-platform dev guide topics.
func DevTopics() []string {
	out := make([]string, len(devTopics))
	copy(out, devTopics)
	return out
}

// IsDevReadKey reports whether key belongs to the dev guide flag set.
func IsDevReadKey(key string) bool {
	for _, k := range DevReadKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// IsGuideReadKey reports whether key belongs to the tools/workflow flag set.
func IsGuideReadKey(key string) bool {
	return key == GuideTools || key == GuideWorkflow
}

// DefaultDevReadMap returns the dev guide flags, all unread.
func DefaultDevReadMap() models.ReadMap {
	m := make(models.ReadMap, len(devPlatformOrder)*len(devTopics))
	for _, k := range DevReadKeys() {
		m[k] = false
	}
	return m
}

// DefaultGuideReadMap returns the tools/workflow flags, all unread.
func DefaultGuideReadMap() models.ReadMap {
	return models.ReadMap{GuideTools: false, GuideWorkflow: false}
}

// DefaultState returns the catalog defaults for a fresh user.
func DefaultState() models.State {
	return models.State{
		UserName:     DefaultUserName,
		Role:         models.DeploymentRole,
		AccountItems: DefaultAccountItems(),
		DevReadMap:   DefaultDevReadMap(),
		GuideReadMap: DefaultGuideReadMap(),
	}
}

// SectionTitle returns the display title of a section ID.
func SectionTitle(id string) string {
	return sectionTitles[id]
}
