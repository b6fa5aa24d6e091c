package models

// CampaignStatus 活动生命周期状态
type CampaignStatus string

const (
	CampaignDraft            CampaignStatus = "draft"             // 草稿
	CampaignPublished        CampaignStatus = "published"         // 已发布
	CampaignApplicationsOpen CampaignStatus = "applications_open" // 开放报名
	CampaignInProgress       CampaignStatus = "in_progress"       // 进行中，至少录用一人
	CampaignCompleted        CampaignStatus = "completed"         // 已完成，生成佣金
	CampaignPaid             CampaignStatus = "paid"              // 已结清
	CampaignClosed           CampaignStatus = "closed"            // 餐厅提前关闭
)

// campaignTransitions 合法的状态迁移表
// 不在表中的迁移一律拒绝
var campaignTransitions = map[CampaignStatus][]CampaignStatus{
	CampaignDraft:            {CampaignPublished},
	CampaignPublished:        {CampaignApplicationsOpen, CampaignClosed},
	CampaignApplicationsOpen: {CampaignInProgress, CampaignClosed},
	CampaignInProgress:       {CampaignCompleted, CampaignClosed},
	CampaignCompleted:        {CampaignPaid},
}

// Valid 判断状态是否合法
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignDraft, CampaignPublished, CampaignApplicationsOpen, CampaignInProgress,
		CampaignCompleted, CampaignPaid, CampaignClosed:
		return true
	}
	return false
}

// CanTransition 判断能否从当前状态迁移到目标状态
func (s CampaignStatus) CanTransition(to CampaignStatus) bool {
	for _, next := range campaignTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// AcceptsApplications 是否可以报名和审核报名
func (s CampaignStatus) AcceptsApplications() bool {
	return s == CampaignPublished || s == CampaignApplicationsOpen || s == CampaignInProgress
}

// Terminal 是否为终态
func (s CampaignStatus) Terminal() bool {
	return s == CampaignPaid || s == CampaignClosed
}

// Editable 是否还能修改活动内容
func (s CampaignStatus) Editable() bool {
	return s == CampaignDraft || s == CampaignPublished
}

// OpenStatuses 网红可见、可报名的状态
var OpenStatuses = []CampaignStatus{CampaignPublished, CampaignApplicationsOpen, CampaignInProgress}
