package store

import (
	"context"
	"encoding/json"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"

	"foodconnect/models"
)

// table 单张内存表，ID自增
type table[T any] struct {
	Next uint       `json:"next"`
	Rows map[uint]T `json:"rows"`
}

func newTable[T any]() table[T] {
	return table[T]{Rows: make(map[uint]T)}
}

func (t *table[T]) nextID() uint {
	t.Next++
	return t.Next
}

func (t table[T]) clone() table[T] {
	return table[T]{Next: t.Next, Rows: maps.Clone(t.Rows)}
}

// rows 按ID倒序返回满足条件的记录
func (t table[T]) rows(keep func(T) bool) []T {
	ids := make([]uint, 0, len(t.Rows))
	for id := range t.Rows {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uint) int { return int(b) - int(a) })
	result := make([]T, 0, len(ids))
	for _, id := range ids {
		row := t.Rows[id]
		if keep == nil || keep(row) {
			result = append(result, row)
		}
	}
	return result
}

// memData 内存数据库的全部数据，也是JSON快照的格式
type memData struct {
	Users           table[models.User]                  `json:"users"`
	Tokens          table[models.UserToken]             `json:"tokens"`
	Restaurants     table[models.Restaurant]            `json:"restaurants"`
	Influencers     table[models.Influencer]            `json:"influencers"`
	Campaigns       table[models.Campaign]              `json:"campaigns"`
	Applications    table[models.Application]           `json:"applications"`
	Commissions     table[models.Commission]            `json:"commissions"`
	FollowerChanges table[models.FollowerChangeRequest] `json:"follower_changes"`
	Notifications   table[models.Notification]          `json:"notifications"`
	// Credentials 密码哈希，User.Password不参与JSON序列化，单独保存
	Credentials map[uint]string `json:"credentials"`
}

func newMemData() *memData {
	return &memData{
		Users:           newTable[models.User](),
		Tokens:          newTable[models.UserToken](),
		Restaurants:     newTable[models.Restaurant](),
		Influencers:     newTable[models.Influencer](),
		Campaigns:       newTable[models.Campaign](),
		Applications:    newTable[models.Application](),
		Commissions:     newTable[models.Commission](),
		FollowerChanges: newTable[models.FollowerChangeRequest](),
		Notifications:   newTable[models.Notification](),
		Credentials:     make(map[uint]string),
	}
}

func (d *memData) clone() *memData {
	return &memData{
		Users:           d.Users.clone(),
		Tokens:          d.Tokens.clone(),
		Restaurants:     d.Restaurants.clone(),
		Influencers:     d.Influencers.clone(),
		Campaigns:       d.Campaigns.clone(),
		Applications:    d.Applications.clone(),
		Commissions:     d.Commissions.clone(),
		FollowerChanges: d.FollowerChanges.clone(),
		Notifications:   d.Notifications.clone(),
		Credentials:     maps.Clone(d.Credentials),
	}
}

// fillNil 补齐快照中缺失的表，并把密码哈希还原到用户记录
func (d *memData) fillNil() {
	empty := newMemData()
	if d.Users.Rows == nil {
		d.Users.Rows = empty.Users.Rows
	}
	if d.Tokens.Rows == nil {
		d.Tokens.Rows = empty.Tokens.Rows
	}
	if d.Restaurants.Rows == nil {
		d.Restaurants.Rows = empty.Restaurants.Rows
	}
	if d.Influencers.Rows == nil {
		d.Influencers.Rows = empty.Influencers.Rows
	}
	if d.Campaigns.Rows == nil {
		d.Campaigns.Rows = empty.Campaigns.Rows
	}
	if d.Applications.Rows == nil {
		d.Applications.Rows = empty.Applications.Rows
	}
	if d.Commissions.Rows == nil {
		d.Commissions.Rows = empty.Commissions.Rows
	}
	if d.FollowerChanges.Rows == nil {
		d.FollowerChanges.Rows = empty.FollowerChanges.Rows
	}
	if d.Notifications.Rows == nil {
		d.Notifications.Rows = empty.Notifications.Rows
	}
	if d.Credentials == nil {
		d.Credentials = empty.Credentials
	}
	for id, user := range d.Users.Rows {
		user.Password = d.Credentials[id]
		d.Users.Rows[id] = user
	}
}

// MemoryStore 是Store的内存实现，可选择把数据快照写入JSON文件
// 所有读写都在同一把互斥锁下执行，事务期间独占该锁，失败时用快照回滚
type MemoryStore struct {
	mu   *sync.Mutex
	data **memData
	path string
	inTx bool
	now  func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore 创建纯内存存储，主要用于测试
func NewMemoryStore() *MemoryStore {
	data := newMemData()
	return &MemoryStore{mu: &sync.Mutex{}, data: &data, now: time.Now}
}

// NewFileStore 创建以JSON文件持久化的存储
// 文件不存在时从空数据开始，每次成功写入后整体重写文件
func NewFileStore(path string) (*MemoryStore, error) {
	s := NewMemoryStore()
	s.path = path

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, errors.Wrap(err, "读取数据文件失败")
	}
	if len(raw) == 0 {
		return s, nil
	}

	loaded := &memData{}
	if err := json.Unmarshal(raw, loaded); err != nil {
		return nil, errors.Wrap(err, "解析数据文件失败")
	}
	loaded.fillNil()
	*s.data = loaded
	return s, nil
}

func (s *MemoryStore) d() *memData {
	return *s.data
}

// read 在锁内执行只读操作，事务内已持有锁
func (s *MemoryStore) read(fn func(d *memData) error) error {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.d())
}

// write 在锁内执行写操作，fn必须先校验再修改，保证失败时不留下部分修改
func (s *MemoryStore) write(fn func(d *memData) error) error {
	if s.inTx {
		return fn(s.d())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.d()); err != nil {
		return err
	}
	return s.flush()
}

// flush 把当前数据写入文件，先写临时文件再改名
func (s *MemoryStore) flush() error {
	if s.path == "" {
		return nil
	}
	raw, err := json.MarshalIndent(s.d(), "", "  ")
	if err != nil {
		return errors.Wrap(err, "序列化数据失败")
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "创建数据目录失败")
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return errors.Wrap(err, "写入数据文件失败")
	}
	return errors.Wrap(os.Rename(tmp, s.path), "替换数据文件失败")
}

// Transaction 独占执行fn，出错时恢复到事务开始前的快照
func (s *MemoryStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.d().clone()
	tx := &MemoryStore{mu: s.mu, data: s.data, path: s.path, inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		*s.data = snapshot
		return err
	}
	if err := s.flush(); err != nil {
		*s.data = snapshot
		return err
	}
	return nil
}

func paginate[T any](rows []T, page, pageSize int) []T {
	page, pageSize = normalizePage(page, pageSize)
	start := (page - 1) * pageSize
	if start >= len(rows) {
		return []T{}
	}
	end := start + pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

func ascending[T any](rows []T) []T {
	slices.Reverse(rows)
	return rows
}

// ---- 用户 ----

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.write(func(d *memData) error {
		for _, existing := range d.Users.Rows {
			if existing.Email == user.Email {
				return ErrDuplicate
			}
		}
		user.ID = d.Users.nextID()
		user.CreatedAt, user.UpdatedAt = s.now(), s.now()
		if user.Status == "" {
			user.Status = models.UserStatusActive
		}
		d.Users.Rows[user.ID] = *user
		d.Credentials[user.ID] = user.Password
		return nil
	})
}

func (s *MemoryStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.read(func(d *memData) error {
		row, ok := d.Users.Rows[id]
		if !ok {
			return ErrNotFound
		}
		user = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user *models.User
	err := s.read(func(d *memData) error {
		for _, row := range d.Users.Rows {
			if row.Email == email {
				found := row
				user = &found
				return nil
			}
		}
		return ErrNotFound
	})
	return user, err
}

func (s *MemoryStore) UpdateUser(ctx context.Context, user *models.User) error {
	return s.write(func(d *memData) error {
		if _, ok := d.Users.Rows[user.ID]; !ok {
			return ErrNotFound
		}
		for id, existing := range d.Users.Rows {
			if id != user.ID && existing.Email == user.Email {
				return ErrDuplicate
			}
		}
		user.UpdatedAt = s.now()
		d.Users.Rows[user.ID] = *user
		d.Credentials[user.ID] = user.Password
		return nil
	})
}

func (s *MemoryStore) ListUsers(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	var users []models.User
	var total int64
	err := s.read(func(d *memData) error {
		all := d.Users.rows(func(u models.User) bool {
			return (filter.Role == "" || u.Role == filter.Role) && (filter.Status == "" || u.Status == filter.Status)
		})
		total = int64(len(all))
		users = paginate(all, filter.Page, filter.PageSize)
		return nil
	})
	return users, total, err
}

// ---- 登录令牌 ----

func (s *MemoryStore) CreateToken(ctx context.Context, token *models.UserToken) error {
	return s.write(func(d *memData) error {
		token.ID = d.Tokens.nextID()
		token.CreatedAt, token.UpdatedAt = s.now(), s.now()
		d.Tokens.Rows[token.ID] = *token
		return nil
	})
}

func (s *MemoryStore) GetToken(ctx context.Context, token string) (*models.UserToken, error) {
	var record *models.UserToken
	err := s.read(func(d *memData) error {
		for _, row := range d.Tokens.Rows {
			if row.Token == token {
				found := row
				record = &found
				return nil
			}
		}
		return ErrNotFound
	})
	return record, err
}

func (s *MemoryStore) ListActiveTokens(ctx context.Context, userID uint, now time.Time) ([]models.UserToken, error) {
	var tokens []models.UserToken
	err := s.read(func(d *memData) error {
		tokens = d.Tokens.rows(func(t models.UserToken) bool {
			return t.UserID == userID && t.ExpiredAt.After(now)
		})
		return nil
	})
	return tokens, err
}

func (s *MemoryStore) DeleteToken(ctx context.Context, userID, id uint) error {
	return s.write(func(d *memData) error {
		row, ok := d.Tokens.Rows[id]
		if !ok || row.UserID != userID {
			return ErrNotFound
		}
		delete(d.Tokens.Rows, id)
		return nil
	})
}

func (s *MemoryStore) DeleteUserTokens(ctx context.Context, userID uint) error {
	return s.write(func(d *memData) error {
		maps.DeleteFunc(d.Tokens.Rows, func(_ uint, t models.UserToken) bool { return t.UserID == userID })
		return nil
	})
}

func (s *MemoryStore) DeleteExpiredTokens(ctx context.Context, userID uint, now time.Time) error {
	return s.write(func(d *memData) error {
		maps.DeleteFunc(d.Tokens.Rows, func(_ uint, t models.UserToken) bool {
			return t.UserID == userID && t.ExpiredAt.Before(now)
		})
		return nil
	})
}

// ---- 餐厅 ----

func (s *MemoryStore) CreateRestaurant(ctx context.Context, restaurant *models.Restaurant) error {
	return s.write(func(d *memData) error {
		for _, existing := range d.Restaurants.Rows {
			if existing.UserID == restaurant.UserID {
				return ErrDuplicate
			}
		}
		restaurant.ID = d.Restaurants.nextID()
		restaurant.CreatedAt, restaurant.UpdatedAt = s.now(), s.now()
		d.Restaurants.Rows[restaurant.ID] = *restaurant
		return nil
	})
}

func (s *MemoryStore) GetRestaurant(ctx context.Context, id uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := s.read(func(d *memData) error {
		row, ok := d.Restaurants.Rows[id]
		if !ok {
			return ErrNotFound
		}
		restaurant = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (s *MemoryStore) GetRestaurantByUser(ctx context.Context, userID uint) (*models.Restaurant, error) {
	var restaurant *models.Restaurant
	err := s.read(func(d *memData) error {
		for _, row := range d.Restaurants.Rows {
			if row.UserID == userID {
				found := row
				restaurant = &found
				return nil
			}
		}
		return ErrNotFound
	})
	return restaurant, err
}

func (s *MemoryStore) UpdateRestaurant(ctx context.Context, restaurant *models.Restaurant) error {
	return s.write(func(d *memData) error {
		if _, ok := d.Restaurants.Rows[restaurant.ID]; !ok {
			return ErrNotFound
		}
		restaurant.UpdatedAt = s.now()
		d.Restaurants.Rows[restaurant.ID] = *restaurant
		return nil
	})
}

// ---- 网红 ----

func (s *MemoryStore) CreateInfluencer(ctx context.Context, influencer *models.Influencer) error {
	return s.write(func(d *memData) error {
		for _, existing := range d.Influencers.Rows {
			if existing.UserID == influencer.UserID {
				return ErrDuplicate
			}
		}
		influencer.ID = d.Influencers.nextID()
		influencer.CreatedAt, influencer.UpdatedAt = s.now(), s.now()
		d.Influencers.Rows[influencer.ID] = *influencer
		return nil
	})
}

func (s *MemoryStore) GetInfluencer(ctx context.Context, id uint) (*models.Influencer, error) {
	var influencer models.Influencer
	err := s.read(func(d *memData) error {
		row, ok := d.Influencers.Rows[id]
		if !ok {
			return ErrNotFound
		}
		influencer = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &influencer, nil
}

func (s *MemoryStore) GetInfluencerByUser(ctx context.Context, userID uint) (*models.Influencer, error) {
	var influencer *models.Influencer
	err := s.read(func(d *memData) error {
		for _, row := range d.Influencers.Rows {
			if row.UserID == userID {
				found := row
				influencer = &found
				return nil
			}
		}
		return ErrNotFound
	})
	return influencer, err
}

func (s *MemoryStore) UpdateInfluencer(ctx context.Context, influencer *models.Influencer) error {
	return s.write(func(d *memData) error {
		if _, ok := d.Influencers.Rows[influencer.ID]; !ok {
			return ErrNotFound
		}
		influencer.UpdatedAt = s.now()
		d.Influencers.Rows[influencer.ID] = *influencer
		return nil
	})
}

func (s *MemoryStore) ListInfluencers(ctx context.Context, filter InfluencerFilter) ([]models.Influencer, int64, error) {
	var influencers []models.Influencer
	var total int64
	err := s.read(func(d *memData) error {
		all := d.Influencers.rows(func(i models.Influencer) bool {
			return (filter.Tier == "" || i.Tier == filter.Tier) && (filter.Location == "" || i.Location == filter.Location)
		})
		total = int64(len(all))
		influencers = paginate(all, filter.Page, filter.PageSize)
		return nil
	})
	return influencers, total, err
}

// ---- 活动 ----

func (s *MemoryStore) CreateCampaign(ctx context.Context, campaign *models.Campaign) error {
	return s.write(func(d *memData) error {
		campaign.ID = d.Campaigns.nextID()
		campaign.CreatedAt, campaign.UpdatedAt = s.now(), s.now()
		if campaign.Status == "" {
			campaign.Status = models.CampaignDraft
		}
		d.Campaigns.Rows[campaign.ID] = *campaign
		return nil
	})
}

func (s *MemoryStore) GetCampaign(ctx context.Context, id uint) (*models.Campaign, error) {
	var campaign models.Campaign
	err := s.read(func(d *memData) error {
		row, ok := d.Campaigns.Rows[id]
		if !ok {
			return ErrNotFound
		}
		campaign = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// LockCampaign 事务本身独占全局锁，这里等同于GetCampaign
func (s *MemoryStore) LockCampaign(ctx context.Context, id uint) (*models.Campaign, error) {
	return s.GetCampaign(ctx, id)
}

func (s *MemoryStore) UpdateCampaign(ctx context.Context, campaign *models.Campaign) error {
	return s.write(func(d *memData) error {
		if _, ok := d.Campaigns.Rows[campaign.ID]; !ok {
			return ErrNotFound
		}
		campaign.UpdatedAt = s.now()
		d.Campaigns.Rows[campaign.ID] = *campaign
		return nil
	})
}

func (s *MemoryStore) DeleteCampaign(ctx context.Context, id uint) error {
	return s.write(func(d *memData) error {
		if _, ok := d.Campaigns.Rows[id]; !ok {
			return ErrNotFound
		}
		delete(d.Campaigns.Rows, id)
		return nil
	})
}

func (s *MemoryStore) ListCampaigns(ctx context.Context, filter CampaignFilter) ([]models.Campaign, int64, error) {
	var campaigns []models.Campaign
	var total int64
	err := s.read(func(d *memData) error {
		all := d.Campaigns.rows(func(c models.Campaign) bool {
			if filter.RestaurantID != 0 && c.RestaurantID != filter.RestaurantID {
				return false
			}
			if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, c.Status) {
				return false
			}
			if filter.Location != "" && c.Location != filter.Location {
				return false
			}
			if !filter.OpenAt.IsZero() && c.DeadlinePassed(filter.OpenAt) {
				return false
			}
			return filter.Tier == "" || c.Targets(filter.Tier)
		})
		total = int64(len(all))
		campaigns = paginate(all, filter.Page, filter.PageSize)
		return nil
	})
	return campaigns, total, err
}

func (s *MemoryStore) CountCampaignsByStatus(ctx context.Context) (map[models.CampaignStatus]int64, error) {
	counts := make(map[models.CampaignStatus]int64)
	err := s.read(func(d *memData) error {
		for _, c := range d.Campaigns.Rows {
			counts[c.Status]++
		}
		return nil
	})
	return counts, err
}

// ---- 报名 ----

func (s *MemoryStore) CreateApplication(ctx context.Context, application *models.Application) error {
	return s.write(func(d *memData) error {
		for _, existing := range d.Applications.Rows {
			if existing.CampaignID == application.CampaignID && existing.InfluencerID == application.InfluencerID {
				return ErrDuplicate
			}
		}
		application.ID = d.Applications.nextID()
		application.CreatedAt, application.UpdatedAt = s.now(), s.now()
		if application.Status == "" {
			application.Status = models.ApplicationPending
		}
		d.Applications.Rows[application.ID] = *application
		return nil
	})
}

func (s *MemoryStore) GetApplication(ctx context.Context, id uint) (*models.Application, error) {
	var application models.Application
	err := s.read(func(d *memData) error {
		row, ok := d.Applications.Rows[id]
		if !ok {
			return ErrNotFound
		}
		application = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &application, nil
}

func (s *MemoryStore) FindApplication(ctx context.Context, campaignID, influencerID uint) (*models.Application, error) {
	var application *models.Application
	err := s.read(func(d *memData) error {
		for _, row := range d.Applications.Rows {
			if row.CampaignID == campaignID && row.InfluencerID == influencerID {
				found := row
				application = &found
				return nil
			}
		}
		return ErrNotFound
	})
	return application, err
}

func matchApplication(filter ApplicationFilter) func(models.Application) bool {
	return func(a models.Application) bool {
		return (filter.CampaignID == 0 || a.CampaignID == filter.CampaignID) &&
			(filter.InfluencerID == 0 || a.InfluencerID == filter.InfluencerID) &&
			(filter.Status == "" || a.Status == filter.Status) &&
			(filter.ExcludeID == 0 || a.ID != filter.ExcludeID)
	}
}

func (s *MemoryStore) ListApplications(ctx context.Context, filter ApplicationFilter) ([]models.Application, error) {
	var applications []models.Application
	err := s.read(func(d *memData) error {
		applications = ascending(d.Applications.rows(matchApplication(filter)))
		return nil
	})
	return applications, err
}

func (s *MemoryStore) CountApplications(ctx context.Context, filter ApplicationFilter) (int64, error) {
	var total int64
	err := s.read(func(d *memData) error {
		total = int64(len(d.Applications.rows(matchApplication(filter))))
		return nil
	})
	return total, err
}

func (s *MemoryStore) UpdateApplication(ctx context.Context, application *models.Application) error {
	return s.write(func(d *memData) error {
		if _, ok := d.Applications.Rows[application.ID]; !ok {
			return ErrNotFound
		}
		application.UpdatedAt = s.now()
		d.Applications.Rows[application.ID] = *application
		return nil
	})
}

func (s *MemoryStore) DeleteApplication(ctx context.Context, id uint, status models.ApplicationStatus) error {
	return s.write(func(d *memData) error {
		if row, ok := d.Applications.Rows[id]; !ok || row.Status != status {
			return ErrNotFound
		}
		delete(d.Applications.Rows, id)
		return nil
	})
}

// ---- 佣金 ----

func (s *MemoryStore) CreateCommission(ctx context.Context, commission *models.Commission) error {
	return s.write(func(d *memData) error {
		for _, existing := range d.Commissions.Rows {
			if existing.CampaignID == commission.CampaignID && existing.InfluencerID == commission.InfluencerID {
				return ErrDuplicate
			}
			if commission.CommissionNo != "" && existing.CommissionNo == commission.CommissionNo {
				return ErrDuplicate
			}
		}
		commission.ID = d.Commissions.nextID()
		commission.CreatedAt, commission.UpdatedAt = s.now(), s.now()
		if commission.Status == "" {
			commission.Status = models.CommissionPending
		}
		d.Commissions.Rows[commission.ID] = *commission
		return nil
	})
}

func (s *MemoryStore) GetCommission(ctx context.Context, id uint) (*models.Commission, error) {
	var commission models.Commission
	err := s.read(func(d *memData) error {
		row, ok := d.Commissions.Rows[id]
		if !ok {
			return ErrNotFound
		}
		commission = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &commission, nil
}

func (s *MemoryStore) FindCommission(ctx context.Context, campaignID, influencerID uint) (*models.Commission, error) {
	var commission *models.Commission
	err := s.read(func(d *memData) error {
		for _, row := range d.Commissions.Rows {
			if row.CampaignID == campaignID && row.InfluencerID == influencerID {
				found := row
				commission = &found
				return nil
			}
		}
		return ErrNotFound
	})
	return commission, err
}

func (s *MemoryStore) ListCommissions(ctx context.Context, filter CommissionFilter) ([]models.Commission, error) {
	var commissions []models.Commission
	err := s.read(func(d *memData) error {
		commissions = ascending(d.Commissions.rows(func(c models.Commission) bool {
			return (filter.CampaignID == 0 || c.CampaignID == filter.CampaignID) &&
				(filter.RestaurantID == 0 || c.RestaurantID == filter.RestaurantID) &&
				(filter.InfluencerID == 0 || c.InfluencerID == filter.InfluencerID) &&
				(filter.Status == "" || c.Status == filter.Status)
		}))
		return nil
	})
	return commissions, err
}

// UpdateCommission 只更新状态相关字段，金额保持生成时的值
func (s *MemoryStore) UpdateCommission(ctx context.Context, commission *models.Commission) error {
	return s.write(func(d *memData) error {
		row, ok := d.Commissions.Rows[commission.ID]
		if !ok {
			return ErrNotFound
		}
		row.Status = commission.Status
		row.ApprovedAt = commission.ApprovedAt
		row.PaidAt = commission.PaidAt
		row.UpdatedAt = s.now()
		d.Commissions.Rows[row.ID] = row
		*commission = row
		return nil
	})
}

// ---- 粉丝数变更 ----

func (s *MemoryStore) CreateFollowerChange(ctx context.Context, request *models.FollowerChangeRequest) error {
	return s.write(func(d *memData) error {
		request.ID = d.FollowerChanges.nextID()
		request.CreatedAt, request.UpdatedAt = s.now(), s.now()
		if request.Status == "" {
			request.Status = models.ChangePending
		}
		d.FollowerChanges.Rows[request.ID] = *request
		return nil
	})
}

func (s *MemoryStore) GetFollowerChange(ctx context.Context, id uint) (*models.FollowerChangeRequest, error) {
	var request models.FollowerChangeRequest
	err := s.read(func(d *memData) error {
		row, ok := d.FollowerChanges.Rows[id]
		if !ok {
			return ErrNotFound
		}
		request = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (s *MemoryStore) ListFollowerChanges(ctx context.Context, status string) ([]models.FollowerChangeRequest, error) {
	var requests []models.FollowerChangeRequest
	err := s.read(func(d *memData) error {
		requests = ascending(d.FollowerChanges.rows(func(r models.FollowerChangeRequest) bool {
			return status == "" || r.Status == status
		}))
		return nil
	})
	return requests, err
}

func (s *MemoryStore) UpdateFollowerChange(ctx context.Context, request *models.FollowerChangeRequest) error {
	return s.write(func(d *memData) error {
		if _, ok := d.FollowerChanges.Rows[request.ID]; !ok {
			return ErrNotFound
		}
		request.UpdatedAt = s.now()
		d.FollowerChanges.Rows[request.ID] = *request
		return nil
	})
}

// ---- 通知 ----

func (s *MemoryStore) CreateNotification(ctx context.Context, notification *models.Notification) error {
	return s.write(func(d *memData) error {
		notification.ID = d.Notifications.nextID()
		notification.CreatedAt = s.now()
		d.Notifications.Rows[notification.ID] = *notification
		return nil
	})
}

func (s *MemoryStore) ListNotifications(ctx context.Context, userID uint, unreadOnly bool) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.read(func(d *memData) error {
		notifications = d.Notifications.rows(func(n models.Notification) bool {
			return n.RecipientID == userID && (!unreadOnly || !n.IsRead)
		})
		if len(notifications) > 100 {
			notifications = notifications[:100]
		}
		return nil
	})
	return notifications, err
}

func (s *MemoryStore) MarkNotificationRead(ctx context.Context, userID, id uint) error {
	return s.write(func(d *memData) error {
		row, ok := d.Notifications.Rows[id]
		if !ok || row.RecipientID != userID {
			return ErrNotFound
		}
		row.IsRead = true
		d.Notifications.Rows[id] = row
		return nil
	})
}
