package models

// Tier 网红分级，根据各平台粉丝数的最大值计算
type Tier string

const (
	TierEmerging    Tier = "emerging"    // 新人
	TierGrowing     Tier = "growing"     // 成长
	TierEstablished Tier = "established" // 成熟
	TierLarge       Tier = "large"       // 大型
	TierMajor       Tier = "major"       // 头部
	TierMega        Tier = "mega"        // 超级头部
)

// tierThresholds 按门槛从高到低排列
var tierThresholds = []struct {
	min  int
	tier Tier
}{
	{100000, TierMega},
	{50000, TierMajor},
	{20000, TierLarge},
	{10000, TierEstablished},
	{5000, TierGrowing},
}

// Tiers 所有分级，从低到高
var Tiers = []Tier{TierEmerging, TierGrowing, TierEstablished, TierLarge, TierMajor, TierMega}

// Valid 判断分级是否合法
func (t Tier) Valid() bool {
	return t.Rank() >= 0
}

// Rank 返回分级的序号，emerging为0，非法分级返回-1
func (t Tier) Rank() int {
	for i, tier := range Tiers {
		if tier == t {
			return i
		}
	}
	return -1
}

// ClassifyTier 根据各平台粉丝数计算网红分级
// 取所有平台中的最大粉丝数，而不是求和；缺失的平台按0处理
func ClassifyTier(followers map[Platform]int) Tier {
	highest := 0
	for _, count := range followers {
		if count > highest {
			highest = count
		}
	}
	for _, threshold := range tierThresholds {
		if highest >= threshold.min {
			return threshold.tier
		}
	}
	return TierEmerging
}
