package models

import (
	"time"
)

// Platform 社交媒体平台
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformXHS       Platform = "xhs" // 小红书
	PlatformYouTube   Platform = "youtube"
)

// Platforms 支持的平台列表
var Platforms = []Platform{PlatformInstagram, PlatformTikTok, PlatformXHS, PlatformYouTube}

// Valid 判断平台是否受支持
func (p Platform) Valid() bool {
	for _, platform := range Platforms {
		if platform == p {
			return true
		}
	}
	return false
}

// Influencer 网红资料模型
// Tier字段由粉丝数推导，任何粉丝数变化后都必须调用RefreshTier重新计算
type Influencer struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`                 // 主键ID
	UserID             uint      `json:"user_id" gorm:"uniqueIndex"`           // 关联用户ID，一个用户只有一份网红资料
	DisplayName        string    `json:"display_name" gorm:"size:100"`         // 展示名称
	Bio                string    `json:"bio" gorm:"type:text"`                 // 个人简介
	Location           string    `json:"location" gorm:"size:100;index"`       // 所在城市，例如Kuala Lumpur
	Niche              string    `json:"niche" gorm:"size:100"`                // 内容方向，例如美食、探店
	Phone              string    `json:"phone" gorm:"size:20"`                 // 电话
	InstagramHandle    string    `json:"instagram_handle" gorm:"size:100"`     // Instagram账号
	InstagramFollowers int       `json:"instagram_followers" gorm:"default:0"` // Instagram粉丝数
	TikTokHandle       string    `json:"tiktok_handle" gorm:"size:100"`        // TikTok账号
	TikTokFollowers    int       `json:"tiktok_followers" gorm:"default:0"`    // TikTok粉丝数
	XHSHandle          string    `json:"xhs_handle" gorm:"size:100"`           // 小红书账号
	XHSFollowers       int       `json:"xhs_followers" gorm:"default:0"`       // 小红书粉丝数
	YouTubeHandle      string    `json:"youtube_handle" gorm:"size:100"`       // YouTube频道
	YouTubeFollowers   int       `json:"youtube_followers" gorm:"default:0"`   // YouTube订阅数
	Tier               Tier      `json:"tier" gorm:"size:20;index"`            // 分级，只读
	CreatedAt          time.Time `json:"created_at" gorm:"autoCreateTime"`     // 创建时间
	UpdatedAt          time.Time `json:"updated_at" gorm:"autoUpdateTime"`     // 更新时间
}

// TableName 返回表名
func (Influencer) TableName() string {
	return "influencers"
}

// FollowerCounts 返回各平台粉丝数
func (i *Influencer) FollowerCounts() map[Platform]int {
	return map[Platform]int{
		PlatformInstagram: i.InstagramFollowers,
		PlatformTikTok:    i.TikTokFollowers,
		PlatformXHS:       i.XHSFollowers,
		PlatformYouTube:   i.YouTubeFollowers,
	}
}

// Followers 返回指定平台的粉丝数
func (i *Influencer) Followers(p Platform) int {
	return i.FollowerCounts()[p]
}

// SetFollowers 设置指定平台的粉丝数并重新计算分级
func (i *Influencer) SetFollowers(p Platform, count int) {
	switch p {
	case PlatformInstagram:
		i.InstagramFollowers = count
	case PlatformTikTok:
		i.TikTokFollowers = count
	case PlatformXHS:
		i.XHSFollowers = count
	case PlatformYouTube:
		i.YouTubeFollowers = count
	}
	i.RefreshTier()
}

// RefreshTier 根据当前粉丝数重新计算分级
func (i *Influencer) RefreshTier() {
	i.Tier = ClassifyTier(i.FollowerCounts())
}

// InfluencerQuery 网红查询参数
type InfluencerQuery struct {
	Tier     Tier   `json:"tier" query:"tier"`           // 分级
	Location string `json:"location" query:"location"`   // 城市
	Page     int    `json:"page" query:"page"`           // 页码
	PageSize int    `json:"page_size" query:"page_size"` // 每页数量
}
